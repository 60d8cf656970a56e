package engine

import (
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/pkg/sequence"
)

// State is the full exportable engine state, the unit the snapshot
// layer persists.
type State struct {
	Critters   []critter.Critter  `json:"critters"`
	NextID     critter.ID         `json:"next_id"`
	Ledger     registry.State     `json:"ledger"`
	Starters   []registry.Account `json:"starters"`
	FeeBalance uint64             `json:"fee_balance"`
}

// Export copies the engine state. Slices are ordered so equal states
// export identically.
func (e *Engine) Export() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		NextID:     e.store.NextID(),
		Ledger:     e.ledger.Export(),
		FeeBalance: e.feeBalance,
	}
	e.store.All(func(c critter.Critter) bool {
		st.Critters = append(st.Critters, c)
		return true
	})
	st.Starters = sequence.SortedKeys(e.starters)
	return st
}

// Restore replaces the engine state with a snapshot. No events are
// emitted; subscribers replay the journal instead.
func (e *Engine) Restore(st State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Restore(st.Critters, st.NextID)
	e.ledger.Restore(st.Ledger)
	e.starters = make(map[registry.Account]bool, len(st.Starters))
	for _, acc := range st.Starters {
		e.starters[acc] = true
	}
	e.feeBalance = st.FeeBalance
}
