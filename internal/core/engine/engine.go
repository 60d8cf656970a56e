// Package engine composes the critter services behind one façade. Every
// operation runs under a single lock, checks all of its preconditions
// before touching any state and either commits all of its effects or
// none. The enclosing process owns the engine instance; there are no
// package-level singletons.
package engine

import (
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/core/random"
	"sync"
)

// Engine routes each external operation to the owning service. The
// store, ledger and fee balance are shared by reference; only one
// service writes any given field.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	store  *critter.Store
	ledger *registry.Ledger
	rand   *random.Source
	state  chain.State
	events bus.EventBus
	log    log.Log

	starters   map[registry.Account]bool
	feeBalance uint64
}

// New builds an engine over the given collaborators.
func New(cfg Config, state chain.State, events bus.EventBus, logger log.Log) *Engine {
	if cfg.WinThreshold == 0 || cfg.WinThreshold > 100 {
		cfg.WinThreshold = DefaultConfig().WinThreshold
	}
	return &Engine{
		cfg:      cfg,
		store:    critter.NewStore(),
		ledger:   registry.NewLedger(state, events, logger),
		rand:     random.New(state),
		state:    state,
		events:   events,
		log:      logger.With(log.String("component", "engine")),
		starters: make(map[registry.Account]bool),
	}
}

// Config returns the rule set the engine runs under.
func (e *Engine) Config() Config {
	return e.cfg
}

// GetCritter returns a copy of the record.
func (e *Engine) GetCritter(id critter.ID) (critter.Critter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// CritterCount returns how many critters were ever created.
func (e *Engine) CritterCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

// FeeBalance returns the accumulated level-up fees not yet withdrawn.
func (e *Engine) FeeBalance() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeBalance
}

// HasStarter reports whether the account already claimed its starter.
func (e *Engine) HasStarter(account registry.Account) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starters[account]
}

// BalanceOf returns how many critters owner holds.
func (e *Engine) BalanceOf(owner registry.Account) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.BalanceOf(owner)
}

// OwnerOf returns the current owner of id.
func (e *Engine) OwnerOf(id critter.ID) (registry.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.OwnerOf(id)
}

// Approve sets the single-slot transfer approval for id.
func (e *Engine) Approve(caller registry.Account, id critter.ID, approved registry.Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Approve(caller, id, approved)
}

// SetApprovalForAll grants or revokes a blanket operator right.
func (e *Engine) SetApprovalForAll(caller, operator registry.Account, approved bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.SetApprovalForAll(caller, operator, approved)
}

// IsApprovedForAll reports whether operator holds blanket approval from
// owner.
func (e *Engine) IsApprovedForAll(owner, operator registry.Account) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.IsApprovedForAll(owner, operator)
}

// TransferFrom moves a critter between accounts.
func (e *Engine) TransferFrom(caller, from, to registry.Account, id critter.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TransferFrom(caller, from, to, id)
}

// requireOwner verifies that caller currently owns id.
func (e *Engine) requireOwner(caller registry.Account, id critter.ID) error {
	owner, err := e.ledger.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return critter.ErrNotOwner
	}
	return nil
}

func (e *Engine) publish(typ string, payload any) {
	if err := e.events.Publish(bus.NewEvent(typ, "engine", e.state.Now(), payload)); err != nil {
		e.log.Warn("event delivery failed", log.String("type", typ), log.Error(err))
	}
}
