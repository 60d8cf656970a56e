package engine

import (
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
)

// FeedAndMultiply breeds a new critter from the caller's donor and an
// external genome, then puts the donor on cooldown.
//
// The mixing rule is literal digit surgery and intentionally stays that
// way: the donor genome keeps every digit pair except the last two
// digits, which are overwritten with the last two digits of targetDNA.
// When species names the cross-species donor and the mixed genome's
// second trait pair lands in the reserved range, that pair is forced to
// the hybrid marker.
func (e *Engine) FeedAndMultiply(caller registry.Account, ownID critter.ID, targetDNA uint64, species string) (critter.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	donor, err := e.store.Get(ownID)
	if err != nil {
		return 0, err
	}
	if err := e.requireOwner(caller, ownID); err != nil {
		return 0, err
	}
	if !e.isReady(donor) {
		return 0, critter.ErrCooldown
	}

	mixed := mixGenomes(donor.Genome, targetDNA)
	if species == e.cfg.HybridSpecies && critter.TraitPair(mixed, hybridMarkerPair) >= hybridRangeMin {
		mixed = critter.WithTraitPair(mixed, hybridMarkerPair, hybridMarker)
	}

	offspringID, err := e.createFromGenome(caller, mixed)
	if err != nil {
		return 0, err
	}

	rec, err := e.store.GetMut(ownID)
	if err != nil {
		return 0, err
	}
	e.triggerCooldown(rec)

	e.log.Info("critter bred",
		log.Uint64("donor", uint64(ownID)),
		log.Uint64("offspring", uint64(offspringID)),
		log.String("species", species),
	)
	return offspringID, nil
}

// mixGenomes overwrites the last two decimal digits of own with the
// last two decimal digits of target.
func mixGenomes(own, target uint64) uint64 {
	return own - own%100 + target%100
}
