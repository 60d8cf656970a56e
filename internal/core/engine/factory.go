package engine

import (
	"math"

	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// CreateRandomCritter mints the caller's one free starter critter with
// a genome derived from its name. A second call by the same account
// fails with critter.ErrStarterClaimed.
func (e *Engine) CreateRandomCritter(caller registry.Account, name string) (critter.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.starters[caller] {
		return 0, critter.ErrStarterClaimed
	}
	genome, err := safemath.Mod(e.rand.Derive(name), critter.GenomeModulus)
	if err != nil {
		return 0, err
	}

	id, err := e.mint(caller, name, genome)
	if err != nil {
		return 0, err
	}
	e.starters[caller] = true

	e.log.Info("starter critter created",
		log.Uint64("id", uint64(id)),
		log.String("owner", caller.String()),
		log.String("name", name),
	)
	return id, nil
}

// createFromGenome mints a critter with a caller-supplied genome.
// Internal to the breeding and combat services; carries no starter
// restriction. Caller holds the engine lock.
func (e *Engine) createFromGenome(owner registry.Account, genome uint64) (critter.ID, error) {
	genome, err := safemath.Mod(genome, critter.GenomeModulus)
	if err != nil {
		return 0, err
	}
	return e.mint(owner, offspringName, genome)
}

// mint builds the fresh record shared by every creation path: level 1,
// zero counters, cooldown already expired. Ownership is assigned first
// so a refused mint leaves no record behind.
func (e *Engine) mint(owner registry.Account, name string, genome uint64) (critter.ID, error) {
	if err := e.canMint(owner); err != nil {
		return 0, err
	}
	id := e.store.NextID()
	if err := e.ledger.Mint(owner, id); err != nil {
		return 0, err
	}
	created := e.store.Create(critter.Critter{
		Name:   name,
		Genome: genome,
		Level:  1,
	})
	if created != id {
		// Unreachable while the store hands out sequential ids.
		e.log.Error("id sequence diverged",
			log.Uint64("reserved", uint64(id)),
			log.Uint64("created", uint64(created)),
		)
	}
	e.publish(EventCritterCreated, CritterCreatedEvent{ID: id, Owner: owner, Name: name, Genome: genome})
	return id, nil
}

// canMint checks every way ledger minting could fail so that callers
// can treat the mint itself as infallible once validation passed.
func (e *Engine) canMint(owner registry.Account) error {
	if owner.IsNull() {
		return critter.ErrZeroAddress
	}
	if e.ledger.BalanceOf(owner) == math.MaxUint64 {
		return safemath.ErrOverflow
	}
	return nil
}
