// Package client is the Go SDK for the CritterChain HTTP API. It wraps
// every state-changing operation and query, and exposes the committed
// event stream over WebSocket.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Config holds connection settings for the client.
type Config struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8970".
	BaseURL string
	// RequestTimeout bounds each HTTP call.
	RequestTimeout time.Duration
	// HTTPClient overrides the transport when set.
	HTTPClient *http.Client
}

// DefaultConfig returns settings for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:8970",
		RequestTimeout: 10 * time.Second,
	}
}

// Client is a CritterChain API client. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client from cfg.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}
}

// Critter mirrors one creature record as the API returns it.
type Critter struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Genome    uint64 `json:"genome"`
	Level     uint32 `json:"level"`
	ReadyAt   uint64 `json:"ready_at"`
	WinCount  uint16 `json:"win_count"`
	LossCount uint16 `json:"loss_count"`
}

// AttackOutcome is the result of one resolved attack.
type AttackOutcome struct {
	AttackerID uint64  `json:"attacker_id"`
	DefenderID uint64  `json:"defender_id"`
	Roll       uint64  `json:"roll"`
	Won        bool    `json:"won"`
	RewardID   *uint64 `json:"reward_id,omitempty"`
}

// Health is the server liveness report.
type Health struct {
	Status   string `json:"status"`
	Critters int    `json:"critters"`
	Height   uint64 `json:"height"`
	Time     string `json:"time"`
}

// CreateCritter claims the caller's starter critter and returns its id.
func (c *Client) CreateCritter(ctx context.Context, caller, name string) (uint64, error) {
	var out struct {
		ID uint64 `json:"id"`
	}
	err := c.post(ctx, "/v1/critters", map[string]any{"caller": caller, "name": name}, &out)
	return out.ID, err
}

// GetCritter fetches one record.
func (c *Client) GetCritter(ctx context.Context, id uint64) (Critter, error) {
	var out Critter
	err := c.get(ctx, fmt.Sprintf("/v1/critters/%d", id), &out)
	return out, err
}

// OwnerOf returns the owning account of a critter.
func (c *Client) OwnerOf(ctx context.Context, id uint64) (string, error) {
	var out struct {
		Owner string `json:"owner"`
	}
	err := c.get(ctx, fmt.Sprintf("/v1/critters/%d/owner", id), &out)
	return out.Owner, err
}

// Feed breeds the critter with an external donor and returns the
// offspring id.
func (c *Client) Feed(ctx context.Context, caller string, id, targetDNA uint64, species string) (uint64, error) {
	var out struct {
		OffspringID uint64 `json:"offspring_id"`
	}
	body := map[string]any{"caller": caller, "target_dna": targetDNA, "species": species}
	err := c.post(ctx, fmt.Sprintf("/v1/critters/%d/feed", id), body, &out)
	return out.OffspringID, err
}

// LevelUp pays the fee and raises the critter one level, returning the
// new level.
func (c *Client) LevelUp(ctx context.Context, caller string, id, payment uint64) (uint32, error) {
	var out struct {
		Level uint32 `json:"level"`
	}
	body := map[string]any{"caller": caller, "payment": payment}
	err := c.post(ctx, fmt.Sprintf("/v1/critters/%d/level-up", id), body, &out)
	return out.Level, err
}

// ChangeName renames the critter.
func (c *Client) ChangeName(ctx context.Context, caller string, id uint64, name string) error {
	body := map[string]any{"caller": caller, "name": name}
	return c.post(ctx, fmt.Sprintf("/v1/critters/%d/name", id), body, nil)
}

// ChangeGenome overwrites the critter's genome.
func (c *Client) ChangeGenome(ctx context.Context, caller string, id, genome uint64) error {
	body := map[string]any{"caller": caller, "genome": genome}
	return c.post(ctx, fmt.Sprintf("/v1/critters/%d/genome", id), body, nil)
}

// Attack resolves combat between two critters.
func (c *Client) Attack(ctx context.Context, caller string, attackerID, defenderID uint64) (AttackOutcome, error) {
	var out AttackOutcome
	body := map[string]any{"caller": caller, "defender_id": defenderID}
	err := c.post(ctx, fmt.Sprintf("/v1/critters/%d/attack", attackerID), body, &out)
	return out, err
}

// Transfer moves a critter between accounts on behalf of caller.
func (c *Client) Transfer(ctx context.Context, caller, from, to string, id uint64) error {
	body := map[string]any{"caller": caller, "from": from, "to": to, "id": id}
	return c.post(ctx, "/v1/transfers", body, nil)
}

// Approve grants (or, with an empty account, clears) the per-critter
// transfer approval.
func (c *Client) Approve(ctx context.Context, caller string, id uint64, approved string) error {
	body := map[string]any{"caller": caller, "id": id, "approved": approved}
	return c.post(ctx, "/v1/approvals", body, nil)
}

// SetApprovalForAll grants or revokes operator rights over all of the
// caller's critters.
func (c *Client) SetApprovalForAll(ctx context.Context, caller, operator string, approved bool) error {
	body := map[string]any{"caller": caller, "operator": operator, "approved": approved}
	return c.post(ctx, "/v1/operator-approvals", body, nil)
}

// Withdraw drains accumulated fees to the admin caller and returns the
// amount in base units.
func (c *Client) Withdraw(ctx context.Context, caller string) (uint64, error) {
	var out struct {
		Amount uint64 `json:"amount"`
	}
	err := c.post(ctx, "/v1/withdrawals", map[string]any{"caller": caller}, &out)
	return out.Amount, err
}

// BalanceOf returns how many critters the account owns.
func (c *Client) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var out struct {
		Balance uint64 `json:"balance"`
	}
	err := c.get(ctx, "/v1/accounts/"+url.PathEscape(account)+"/balance", &out)
	return out.Balance, err
}

// IsApprovedForAll reports whether operator may act on all of owner's
// critters.
func (c *Client) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	var out struct {
		Approved bool `json:"approved"`
	}
	path := "/v1/accounts/" + url.PathEscape(owner) + "/operators/" + url.PathEscape(operator)
	err := c.get(ctx, path, &out)
	return out.Approved, err
}

// Healthz returns the server liveness report.
func (c *Client) Healthz(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/healthz", &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Event is one committed-state change pushed over the event stream.
type Event struct {
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Events connects to the server's WebSocket stream and delivers events
// until ctx is cancelled or the connection drops. The returned channel
// is closed on exit.
func (c *Client) Events(ctx context.Context) (<-chan Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/v1/events"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	ch := make(chan Event, 64)
	go func() {
		defer close(ch)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if err := json.Unmarshal(frame, &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
