package registry

import (
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/pkg/sequence"
)

// State is the exportable ledger content. Per-owner counts are not
// exported; Restore recomputes them from the owner map so the
// count/cardinality invariant holds by construction.
type State struct {
	Owners    map[critter.ID]Account `json:"owners"`
	Approved  map[critter.ID]Account `json:"approved"`
	Operators map[Account][]Account  `json:"operators"`
}

// Export copies the ledger content for snapshotting.
func (l *Ledger) Export() State {
	st := State{
		Owners:    make(map[critter.ID]Account, len(l.owners)),
		Approved:  make(map[critter.ID]Account, len(l.approved)),
		Operators: make(map[Account][]Account, len(l.operators)),
	}
	for id, owner := range l.owners {
		st.Owners[id] = owner
	}
	for id, acc := range l.approved {
		st.Approved[id] = acc
	}
	for owner, ops := range l.operators {
		st.Operators[owner] = sequence.SortedKeys(ops)
	}
	return st
}

// Restore replaces the ledger content. Used by snapshot import only; no
// events are emitted.
func (l *Ledger) Restore(st State) {
	l.owners = make(map[critter.ID]Account, len(st.Owners))
	l.counts = make(map[Account]uint64)
	l.approved = make(map[critter.ID]Account, len(st.Approved))
	l.operators = make(map[Account]map[Account]bool, len(st.Operators))

	for id, owner := range st.Owners {
		l.owners[id] = owner
		l.counts[owner]++
	}
	for id, acc := range st.Approved {
		l.approved[id] = acc
	}
	for owner, ops := range st.Operators {
		for _, op := range ops {
			if l.operators[owner] == nil {
				l.operators[owner] = make(map[Account]bool)
			}
			l.operators[owner][op] = true
		}
	}
}
