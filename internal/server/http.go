package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/persistence/journal"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/events", s.handleEvents)

	mux.HandleFunc("POST /v1/critters", s.handleCreateCritter)
	mux.HandleFunc("GET /v1/critters/{id}", s.handleGetCritter)
	mux.HandleFunc("GET /v1/critters/{id}/owner", s.handleOwnerOf)
	mux.HandleFunc("POST /v1/critters/{id}/feed", s.handleFeed)
	mux.HandleFunc("POST /v1/critters/{id}/level-up", s.handleLevelUp)
	mux.HandleFunc("POST /v1/critters/{id}/name", s.handleChangeName)
	mux.HandleFunc("POST /v1/critters/{id}/genome", s.handleChangeGenome)
	mux.HandleFunc("POST /v1/critters/{id}/attack", s.handleAttack)

	mux.HandleFunc("POST /v1/transfers", s.handleTransfer)
	mux.HandleFunc("POST /v1/approvals", s.handleApprove)
	mux.HandleFunc("POST /v1/operator-approvals", s.handleSetApprovalForAll)
	mux.HandleFunc("POST /v1/withdrawals", s.handleWithdraw)

	mux.HandleFunc("GET /v1/accounts/{account}/balance", s.handleBalanceOf)
	mux.HandleFunc("GET /v1/accounts/{owner}/operators/{operator}", s.handleIsApprovedForAll)

	return mux
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	code, status := mapError(err)
	writeJSON(w, status, errorResponse{
		Error:     errorBody{Code: code, Message: err.Error()},
		RequestID: requestID,
	})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, requestID string, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     errorBody{Code: CodeBadRequest, Message: err.Error()},
		RequestID: requestID,
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (critter.ID, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path %s %q: not a critter id", name, raw)
	}
	return critter.ID(n), nil
}

// beginOp sequences one mutating operation: a request id for tracing
// and one substrate transaction observed before the engine runs.
func (s *Server) beginOp(w http.ResponseWriter) string {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	s.chain.ObserveTx()
	return requestID
}

// record appends the operation outcome to the audit journal.
func (s *Server) record(requestID string, caller registry.Account, op string, params any, err error) {
	if err != nil {
		s.log.Debug("operation refused",
			log.String("request_id", requestID),
			log.String("op", op),
			log.Error(err),
		)
	}
	if s.journal == nil {
		return
	}
	rec := journal.OpRecord{
		Timestamp: s.chain.Now(),
		RequestID: requestID,
		Caller:    caller.String(),
		Op:        op,
		Params:    params,
	}
	if err != nil {
		rec.Err = err.Error()
	}
	s.journal.RecordOp(rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"critters": s.engine.CritterCount(),
		"height":   s.chain.Height(),
		"time":     s.chain.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateCritter(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	var req struct {
		Caller string `json:"caller"`
		Name   string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	id, err := s.engine.CreateRandomCritter(caller, req.Name)
	s.record(requestID, caller, "createRandomCritter", req, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "request_id": requestID})
}

func (s *Server) handleGetCritter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "", err)
		return
	}
	rec, err := s.engine.GetCritter(id)
	if err != nil {
		s.writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "", err)
		return
	}
	owner, err := s.engine.OwnerOf(id)
	if err != nil {
		s.writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "owner": owner})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	var req struct {
		Caller    string `json:"caller"`
		TargetDNA uint64 `json:"target_dna"`
		Species   string `json:"species"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	offspringID, err := s.engine.FeedAndMultiply(caller, id, req.TargetDNA, req.Species)
	s.record(requestID, caller, "feedAndMultiply", map[string]any{"id": id, "target_dna": req.TargetDNA, "species": req.Species}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"offspring_id": offspringID, "request_id": requestID})
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	var req struct {
		Caller  string `json:"caller"`
		Payment uint64 `json:"payment"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	err = s.engine.LevelUp(caller, id, req.Payment)
	s.record(requestID, caller, "levelUp", map[string]any{"id": id, "payment": req.Payment}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	rec, err := s.engine.GetCritter(id)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "level": rec.Level, "request_id": requestID})
}

func (s *Server) handleChangeName(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	var req struct {
		Caller string `json:"caller"`
		Name   string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	err = s.engine.ChangeName(caller, id, req.Name)
	s.record(requestID, caller, "changeName", map[string]any{"id": id, "name": req.Name}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": req.Name, "request_id": requestID})
}

func (s *Server) handleChangeGenome(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	id, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	var req struct {
		Caller string `json:"caller"`
		Genome uint64 `json:"genome"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	err = s.engine.ChangeGenome(caller, id, req.Genome)
	s.record(requestID, caller, "changeGenome", map[string]any{"id": id, "genome": req.Genome}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "request_id": requestID})
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	attackerID, err := pathID(r, "id")
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	var req struct {
		Caller     string     `json:"caller"`
		DefenderID critter.ID `json:"defender_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	result, err := s.engine.Attack(caller, attackerID, req.DefenderID)
	s.record(requestID, caller, "attack", map[string]any{"attacker_id": attackerID, "defender_id": req.DefenderID}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, attackResponse(result, requestID))
}

func attackResponse(res engine.AttackResult, requestID string) map[string]any {
	body := map[string]any{
		"attacker_id": res.AttackerID,
		"defender_id": res.DefenderID,
		"roll":        res.Roll,
		"won":         res.Won,
		"request_id":  requestID,
	}
	if res.RewardID != nil {
		body["reward_id"] = *res.RewardID
	}
	return body
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	var req struct {
		Caller string     `json:"caller"`
		From   string     `json:"from"`
		To     string     `json:"to"`
		ID     critter.ID `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	from, err := registry.ParseAccount(req.From)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	// The null destination is passed through so the engine can refuse
	// it with its own error kind.
	to := registry.Account(req.To)
	if req.To != "" {
		if to, err = registry.ParseAccount(req.To); err != nil {
			s.writeBadRequest(w, requestID, err)
			return
		}
	}

	err = s.engine.TransferFrom(caller, from, to, req.ID)
	s.record(requestID, caller, "transferFrom", map[string]any{"from": req.From, "to": req.To, "id": req.ID}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID, "owner": to, "request_id": requestID})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	var req struct {
		Caller   string     `json:"caller"`
		ID       critter.ID `json:"id"`
		Approved string     `json:"approved"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	// Approving the null account clears the slot.
	approved := registry.Account(req.Approved)
	if req.Approved != "" {
		if approved, err = registry.ParseAccount(req.Approved); err != nil {
			s.writeBadRequest(w, requestID, err)
			return
		}
	}

	err = s.engine.Approve(caller, req.ID, approved)
	s.record(requestID, caller, "approve", map[string]any{"id": req.ID, "approved": req.Approved}, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID, "approved": approved, "request_id": requestID})
}

func (s *Server) handleSetApprovalForAll(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	var req struct {
		Caller   string `json:"caller"`
		Operator string `json:"operator"`
		Approved bool   `json:"approved"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	operator, err := registry.ParseAccount(req.Operator)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	s.engine.SetApprovalForAll(caller, operator, req.Approved)
	s.record(requestID, caller, "setApprovalForAll", map[string]any{"operator": req.Operator, "approved": req.Approved}, nil)
	writeJSON(w, http.StatusOK, map[string]any{"operator": operator, "approved": req.Approved, "request_id": requestID})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	requestID := s.beginOp(w)
	var req struct {
		Caller string `json:"caller"`
	}
	if err := decode(r, &req); err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}
	caller, err := registry.ParseAccount(req.Caller)
	if err != nil {
		s.writeBadRequest(w, requestID, err)
		return
	}

	amount, err := s.engine.Withdraw(caller)
	s.record(requestID, caller, "withdraw", nil, err)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount, "request_id": requestID})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, r *http.Request) {
	account := registry.Account(r.PathValue("account"))
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"balance": s.engine.BalanceOf(account),
	})
}

func (s *Server) handleIsApprovedForAll(w http.ResponseWriter, r *http.Request) {
	owner := registry.Account(r.PathValue("owner"))
	operator := registry.Account(r.PathValue("operator"))
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":    owner,
		"operator": operator,
		"approved": s.engine.IsApprovedForAll(owner, operator),
	})
}
