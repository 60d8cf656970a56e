// Package registry is the ownership ledger: the single source of truth
// for which account owns which critter. Transfer and approval semantics
// match a single-owner, globally-unique non-fungible token standard.
package registry

import (
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// Ledger maps critter ids to owners and tracks per-owner counts plus
// the two approval surfaces. Every method either applies all of its
// effects or none; preconditions are checked before any map is touched.
type Ledger struct {
	owners    map[critter.ID]Account
	counts    map[Account]uint64
	approved  map[critter.ID]Account
	operators map[Account]map[Account]bool

	state  chain.State
	events bus.EventBus
	log    log.Log
}

func NewLedger(state chain.State, events bus.EventBus, logger log.Log) *Ledger {
	return &Ledger{
		owners:    make(map[critter.ID]Account),
		counts:    make(map[Account]uint64),
		approved:  make(map[critter.ID]Account),
		operators: make(map[Account]map[Account]bool),
		state:     state,
		events:    events,
		log:       logger.With(log.String("component", "registry")),
	}
}

// BalanceOf returns how many critters owner holds; zero for unknown
// accounts.
func (l *Ledger) BalanceOf(owner Account) uint64 {
	return l.counts[owner]
}

// OwnerOf returns the current owner of id.
func (l *Ledger) OwnerOf(id critter.ID) (Account, error) {
	owner, ok := l.owners[id]
	if !ok {
		return Null, critter.ErrUnknownCritter
	}
	return owner, nil
}

// Approved returns the single-slot approved account for id, or Null.
func (l *Ledger) Approved(id critter.ID) Account {
	return l.approved[id]
}

// Approve sets the single-slot approval for id. The caller must be the
// owner or a blanket-approved operator for the owner. Each call
// overwrites the previous slot; approving Null clears it.
func (l *Ledger) Approve(caller Account, id critter.ID, approved Account) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if caller != owner && !l.IsApprovedForAll(owner, caller) {
		return critter.ErrNotOwnerOrOperator
	}

	l.approved[id] = approved
	l.publish(EventApproval, ApprovalEvent{Owner: owner, Approved: approved, ID: id})
	return nil
}

// SetApprovalForAll grants or revokes operator's blanket transfer right
// over all of caller's critters. Self-approval is permitted and has no
// practical effect.
func (l *Ledger) SetApprovalForAll(caller, operator Account, approved bool) {
	if approved {
		if l.operators[caller] == nil {
			l.operators[caller] = make(map[Account]bool)
		}
		l.operators[caller][operator] = true
	} else {
		delete(l.operators[caller], operator)
		if len(l.operators[caller]) == 0 {
			delete(l.operators, caller)
		}
	}
	l.publish(EventApprovalForAll, ApprovalForAllEvent{Owner: caller, Operator: operator, Approved: approved})
}

// IsApprovedForAll reports whether operator holds blanket approval from
// owner.
func (l *Ledger) IsApprovedForAll(owner, operator Account) bool {
	return l.operators[owner][operator]
}

// TransferFrom moves id from `from` to `to`. The caller must be the
// owner, the single-slot approved account for id, or a blanket-approved
// operator for `from`. The owner reassignment, both count updates and
// the approval-slot clear commit together or not at all.
func (l *Ledger) TransferFrom(caller, from, to Account, id critter.ID) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return critter.ErrNotOwner
	}
	if caller != from && caller != l.approved[id] && !l.IsApprovedForAll(from, caller) {
		return critter.ErrNotAuthorized
	}
	if to.IsNull() {
		return critter.ErrZeroAddress
	}
	fromCount, err := safemath.Sub(l.counts[from], 1)
	if err != nil {
		return err
	}
	toCount, err := safemath.Add(l.counts[to], 1)
	if err != nil {
		return err
	}

	l.owners[id] = to
	l.setCount(from, fromCount)
	l.counts[to] = toCount
	delete(l.approved, id)

	l.log.Debug("transfer committed",
		log.Uint64("id", uint64(id)),
		log.String("from", from.String()),
		log.String("to", to.String()),
	)
	l.publish(EventTransfer, TransferEvent{From: from, To: to, ID: id})
	return nil
}

// Mint assigns a never-owned id to `to`. Called by the factory service
// only.
func (l *Ledger) Mint(to Account, id critter.ID) error {
	if _, ok := l.owners[id]; ok {
		return critter.ErrDuplicateCritter
	}
	if to.IsNull() {
		return critter.ErrZeroAddress
	}
	count, err := safemath.Add(l.counts[to], 1)
	if err != nil {
		return err
	}

	l.owners[id] = to
	l.counts[to] = count

	l.publish(EventTransfer, TransferEvent{From: Null, To: to, ID: id})
	return nil
}

func (l *Ledger) setCount(owner Account, count uint64) {
	if count == 0 {
		delete(l.counts, owner)
		return
	}
	l.counts[owner] = count
}

func (l *Ledger) publish(typ string, payload any) {
	if err := l.events.Publish(bus.NewEvent(typ, "registry", l.state.Now(), payload)); err != nil {
		l.log.Warn("event delivery failed", log.String("type", typ), log.Error(err))
	}
}
