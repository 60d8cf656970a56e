package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critterchain/critterchain/internal/config"
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
)

// base58-safe test addresses
const (
	addrAlice = "a1ice"
	addrBob   = "bob2"
	addrCarol = "caro1"
	addrAdmin = "admin5"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *chain.Sim) {
	t.Helper()

	cfg := config.Default()
	cfg.Engine.Admin = addrAdmin

	sim := chain.NewSim("server-test", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := bus.New()

	engCfg := engine.DefaultConfig()
	engCfg.Admin = addrAdmin
	eng := engine.New(engCfg, sim, b, log.NewNop())

	srv := New(cfg, eng, sim, b, nil, log.NewNop())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return srv, ts, sim
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCreateCritterEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Zeus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var created struct {
		ID uint64 `json:"id"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, uint64(0), created.ID)

	// Second starter for the same account is refused with the
	// dedicated code.
	resp = postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Hera"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var fail errorResponse
	decodeBody(t, resp, &fail)
	assert.Equal(t, CodeStarterClaimed, fail.Error.Code)
	assert.NotEmpty(t, fail.RequestID)
}

func TestCreateCritterRejectsBadAddress(t *testing.T) {
	_, ts, _ := newTestServer(t)

	// 0, O, I and l are not base58.
	resp := postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": "0OIl", "name": "Zeus"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var fail errorResponse
	decodeBody(t, resp, &fail)
	assert.Equal(t, CodeBadRequest, fail.Error.Code)
}

func TestGetCritterAndOwner(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Zeus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var rec struct {
		ID     uint64 `json:"id"`
		Name   string `json:"name"`
		Level  uint32 `json:"level"`
		Genome uint64 `json:"genome"`
	}
	resp, err := http.Get(ts.URL + "/v1/critters/0")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &rec)
	assert.Equal(t, "Zeus", rec.Name)
	assert.Equal(t, uint32(1), rec.Level)

	var owner struct {
		Owner string `json:"owner"`
	}
	resp, err = http.Get(ts.URL + "/v1/critters/0/owner")
	require.NoError(t, err)
	decodeBody(t, resp, &owner)
	assert.Equal(t, addrAlice, owner.Owner)

	// Unknown id maps to 404.
	resp, err = http.Get(ts.URL + "/v1/critters/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Garbage id maps to 400.
	resp, err = http.Get(ts.URL + "/v1/critters/zeus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransferApprovalFlow(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Zeus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Alice approves Carol for critter 0.
	resp = postJSON(t, ts.URL+"/v1/approvals", map[string]any{"caller": addrAlice, "id": 0, "approved": addrCarol})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Carol moves it to Bob.
	resp = postJSON(t, ts.URL+"/v1/transfers", map[string]any{"caller": addrCarol, "from": addrAlice, "to": addrBob, "id": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Replay fails: alice is no longer the owner.
	resp = postJSON(t, ts.URL+"/v1/transfers", map[string]any{"caller": addrCarol, "from": addrAlice, "to": addrBob, "id": 0})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	var fail errorResponse
	decodeBody(t, resp, &fail)
	assert.Equal(t, CodeNotOwner, fail.Error.Code)

	var balance struct {
		Balance uint64 `json:"balance"`
	}
	resp, err := http.Get(ts.URL + "/v1/accounts/" + addrBob + "/balance")
	require.NoError(t, err)
	decodeBody(t, resp, &balance)
	assert.Equal(t, uint64(1), balance.Balance)
}

func TestOperatorApprovalEndpoints(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/operator-approvals", map[string]any{"caller": addrAlice, "operator": addrBob, "approved": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var check struct {
		Approved bool `json:"approved"`
	}
	resp, err := http.Get(ts.URL + "/v1/accounts/" + addrAlice + "/operators/" + addrBob)
	require.NoError(t, err)
	decodeBody(t, resp, &check)
	assert.True(t, check.Approved)

	resp, err = http.Get(ts.URL + "/v1/accounts/" + addrBob + "/operators/" + addrAlice)
	require.NoError(t, err)
	decodeBody(t, resp, &check)
	assert.False(t, check.Approved)
}

func TestWithdrawEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/withdrawals", map[string]any{"caller": addrAlice})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/withdrawals", map[string]any{"caller": addrAdmin})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Amount uint64 `json:"amount"`
	}
	decodeBody(t, resp, &out)
	assert.Zero(t, out.Amount)
}

func TestLevelUpAndCooldownCodes(t *testing.T) {
	srv, ts, sim := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Zeus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrBob, "name": "Hera"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Underpaying maps to the fee code.
	resp = postJSON(t, ts.URL+"/v1/critters/0/level-up", map[string]any{"caller": addrAlice, "payment": 1})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var fail errorResponse
	decodeBody(t, resp, &fail)
	assert.Equal(t, CodeInsufficientFee, fail.Error.Code)

	fee := srv.engine.Config().LevelUpFee
	resp = postJSON(t, ts.URL+"/v1/critters/0/level-up", map[string]any{"caller": addrAlice, "payment": fee})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lvl struct {
		Level uint32 `json:"level"`
	}
	decodeBody(t, resp, &lvl)
	assert.Equal(t, uint32(2), lvl.Level)

	// Attack once, then again inside the cooldown window.
	resp = postJSON(t, ts.URL+"/v1/critters/0/attack", map[string]any{"caller": addrAlice, "defender_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/critters/0/attack", map[string]any{"caller": addrAlice, "defender_id": 1})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	decodeBody(t, resp, &fail)
	assert.Equal(t, CodeCooldown, fail.Error.Code)

	sim.Advance(srv.engine.Config().Cooldown)
	resp = postJSON(t, ts.URL+"/v1/critters/0/attack", map[string]any{"caller": addrAlice, "defender_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var health struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
}

func TestEventStreamDeliversCommittedEvents(t *testing.T) {
	_, ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Trigger a mint: one critter.created and one asset.transfer.
	postJSON(t, ts.URL+"/v1/critters", map[string]any{"caller": addrAlice, "name": "Zeus"}).Body.Close()

	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev wireEvent
		require.NoError(t, json.Unmarshal(frame, &ev))
		types[ev.Type] = true
	}
	assert.True(t, types["asset.transfer"])
	assert.True(t, types["critter.created"])
}
