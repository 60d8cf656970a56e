package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
)

const (
	accA     = registry.Account("acc-a")
	accB     = registry.Account("acc-b")
	accC     = registry.Account("acc-c")
	accD     = registry.Account("acc-d")
	accAdmin = registry.Account("acc-admin")
)

func newTestEngine(t *testing.T) (*Engine, *chain.Sim) {
	t.Helper()
	sim := chain.NewSim("engine-test", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Admin = accAdmin
	return New(cfg, sim, bus.New(), log.NewNop()), sim
}

// raiseLevel buys enough level-ups to reach the target level.
func raiseLevel(t *testing.T, e *Engine, owner registry.Account, id critter.ID, target uint32) {
	t.Helper()
	rec, err := e.GetCritter(id)
	require.NoError(t, err)
	for lvl := rec.Level; lvl < target; lvl++ {
		require.NoError(t, e.LevelUp(owner, id, e.Config().LevelUpFee))
	}
}

func TestStarterScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	assert.Equal(t, critter.ID(0), id)

	owner, err := e.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, accA, owner)
	assert.Equal(t, uint64(1), e.BalanceOf(accA))

	rec, err := e.GetCritter(id)
	require.NoError(t, err)
	assert.Equal(t, "Zeus", rec.Name)
	assert.Equal(t, uint32(1), rec.Level)
	assert.Less(t, rec.Genome, critter.GenomeModulus)
	assert.Zero(t, rec.WinCount)
	assert.Zero(t, rec.LossCount)

	// The one free critter per account is strictly enforced.
	_, err = e.CreateRandomCritter(accA, "Hera")
	require.ErrorIs(t, err, critter.ErrStarterClaimed)

	// Other accounts are unaffected.
	id2, err := e.CreateRandomCritter(accB, "Ares")
	require.NoError(t, err)
	assert.Equal(t, critter.ID(1), id2)
}

func TestStarterGenomeIsNameDerived(t *testing.T) {
	e1, _ := newTestEngine(t)
	e2, _ := newTestEngine(t)

	idA, err := e1.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	idB, err := e2.CreateRandomCritter(accB, "Zeus")
	require.NoError(t, err)

	a, err := e1.GetCritter(idA)
	require.NoError(t, err)
	b, err := e2.GetCritter(idB)
	require.NoError(t, err)

	// Same name against the same substrate snapshot derives the same
	// genome.
	assert.Equal(t, a.Genome, b.Genome)
}

func TestFeedAndMultiplyMixesLastDigitPair(t *testing.T) {
	e, _ := newTestEngine(t)

	donorID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	donor, err := e.GetCritter(donorID)
	require.NoError(t, err)

	const targetDNA = uint64(9357184492837465)
	offID, err := e.FeedAndMultiply(accA, donorID, targetDNA, "plain")
	require.NoError(t, err)

	off, err := e.GetCritter(offID)
	require.NoError(t, err)

	// Last two digits come from the target, every other pair from the
	// donor.
	assert.Equal(t, targetDNA%100, off.Genome%100)
	for pair := 1; pair < critter.TraitPairs; pair++ {
		assert.Equal(t, critter.TraitPair(donor.Genome, pair), critter.TraitPair(off.Genome, pair))
	}

	// Offspring belongs to the caller and starts fresh.
	owner, err := e.OwnerOf(offID)
	require.NoError(t, err)
	assert.Equal(t, accA, owner)
	assert.Equal(t, uint32(1), off.Level)
}

func TestFeedAndMultiplyHybridMarker(t *testing.T) {
	e, _ := newTestEngine(t)

	donorID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	// Unlock genome editing and plant a second trait pair inside the
	// reserved range.
	raiseLevel(t, e, accA, donorID, 20)
	require.NoError(t, e.ChangeGenome(accA, donorID, 1111111111119211))

	offID, err := e.FeedAndMultiply(accA, donorID, 42, "kitty")
	require.NoError(t, err)
	off, err := e.GetCritter(offID)
	require.NoError(t, err)

	assert.Equal(t, uint64(1111111111119942), off.Genome)
}

func TestFeedAndMultiplyNoMarkerOutsideRangeOrSpecies(t *testing.T) {
	e, _ := newTestEngine(t)

	donorID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	raiseLevel(t, e, accA, donorID, 20)
	require.NoError(t, e.ChangeGenome(accA, donorID, 1111111111118811))

	// Second trait pair 88 is below the reserved range: untouched.
	offID, err := e.FeedAndMultiply(accA, donorID, 42, "kitty")
	require.NoError(t, err)
	off, err := e.GetCritter(offID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1111111111118842), off.Genome)

	// In-range pair but wrong species: untouched. New donor since the
	// first one is cooling down.
	donor2, err := e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)
	raiseLevel(t, e, accB, donor2, 20)
	require.NoError(t, e.ChangeGenome(accB, donor2, 1111111111119211))

	offID2, err := e.FeedAndMultiply(accB, donor2, 42, "plain")
	require.NoError(t, err)
	off2, err := e.GetCritter(offID2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1111111111119242), off2.Genome)
}

func TestFeedAndMultiplyGuards(t *testing.T) {
	e, sim := newTestEngine(t)

	donorID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	_, err = e.FeedAndMultiply(accB, donorID, 42, "plain")
	require.ErrorIs(t, err, critter.ErrNotOwner)

	_, err = e.FeedAndMultiply(accA, 99, 42, "plain")
	require.ErrorIs(t, err, critter.ErrUnknownCritter)

	// Feeding triggers the donor cooldown.
	_, err = e.FeedAndMultiply(accA, donorID, 42, "plain")
	require.NoError(t, err)
	_, err = e.FeedAndMultiply(accA, donorID, 42, "plain")
	require.ErrorIs(t, err, critter.ErrCooldown)

	// Ready again exactly one cooldown later.
	sim.Advance(e.Config().Cooldown - time.Second)
	_, err = e.FeedAndMultiply(accA, donorID, 42, "plain")
	require.ErrorIs(t, err, critter.ErrCooldown)

	sim.Advance(time.Second)
	_, err = e.FeedAndMultiply(accA, donorID, 42, "plain")
	require.NoError(t, err)
}

func TestLevelUpFeeHandling(t *testing.T) {
	e, _ := newTestEngine(t)
	fee := e.Config().LevelUpFee

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	require.ErrorIs(t, e.LevelUp(accA, id, fee-1), critter.ErrInsufficientFee)
	require.ErrorIs(t, e.LevelUp(accB, id, fee), critter.ErrNotOwner)

	require.NoError(t, e.LevelUp(accA, id, fee))
	rec, err := e.GetCritter(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rec.Level)
	assert.Equal(t, fee, e.FeeBalance())

	// Overpayment is kept in full.
	require.NoError(t, e.LevelUp(accA, id, fee*3))
	assert.Equal(t, fee*4, e.FeeBalance())
}

func TestWithdrawRestrictedToAdmin(t *testing.T) {
	e, _ := newTestEngine(t)
	fee := e.Config().LevelUpFee

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	require.NoError(t, e.LevelUp(accA, id, fee))

	_, err = e.Withdraw(accA)
	require.ErrorIs(t, err, critter.ErrNotAuthorized)
	assert.Equal(t, fee, e.FeeBalance())

	amount, err := e.Withdraw(accAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee, amount)
	assert.Zero(t, e.FeeBalance())
}

func TestChangeNameLevelGate(t *testing.T) {
	e, _ := newTestEngine(t)

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	require.ErrorIs(t, e.ChangeName(accA, id, "Jupiter"), critter.ErrLevelTooLow)
	require.ErrorIs(t, e.ChangeName(accB, id, "Jupiter"), critter.ErrNotOwner)

	raiseLevel(t, e, accA, id, 2)
	require.NoError(t, e.ChangeName(accA, id, "Jupiter"))

	rec, err := e.GetCritter(id)
	require.NoError(t, err)
	assert.Equal(t, "Jupiter", rec.Name)
}

func TestChangeGenomeLevelGate(t *testing.T) {
	e, _ := newTestEngine(t)

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	require.ErrorIs(t, e.ChangeGenome(accA, id, 1), critter.ErrLevelTooLow)

	raiseLevel(t, e, accA, id, 19)
	require.ErrorIs(t, e.ChangeGenome(accA, id, 1), critter.ErrLevelTooLow)

	raiseLevel(t, e, accA, id, 20)
	require.NoError(t, e.ChangeGenome(accA, id, 1))

	rec, err := e.GetCritter(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Genome)
}

func TestAttackCooldownWindow(t *testing.T) {
	e, sim := newTestEngine(t)

	attackerID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	defenderID, err := e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)

	_, err = e.Attack(accA, attackerID, defenderID)
	require.NoError(t, err)

	// Second attack in the same window is refused.
	_, err = e.Attack(accA, attackerID, defenderID)
	require.ErrorIs(t, err, critter.ErrCooldown)

	// The defender never cools down.
	_, err = e.Attack(accB, defenderID, attackerID)
	require.NoError(t, err)

	sim.Advance(e.Config().Cooldown)
	_, err = e.Attack(accA, attackerID, defenderID)
	require.NoError(t, err)
}

func TestAttackGuards(t *testing.T) {
	e, _ := newTestEngine(t)

	attackerID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	_, err = e.Attack(accB, attackerID, attackerID)
	require.ErrorIs(t, err, critter.ErrNotOwner)

	_, err = e.Attack(accA, attackerID, 99)
	require.ErrorIs(t, err, critter.ErrUnknownCritter)

	_, err = e.Attack(accA, 99, attackerID)
	require.ErrorIs(t, err, critter.ErrUnknownCritter)
}

// attackUntil drives the substrate forward until an attack lands with
// the wanted outcome.
func attackUntil(t *testing.T, e *Engine, sim *chain.Sim, attacker, defender critter.ID, won bool) AttackResult {
	t.Helper()
	for i := 0; i < 200; i++ {
		sim.Advance(e.Config().Cooldown)
		sim.ObserveTx()
		res, err := e.Attack(accA, attacker, defender)
		require.NoError(t, err)
		if res.Won == won {
			return res
		}
	}
	t.Fatalf("no attack with won=%v in 200 snapshots", won)
	return AttackResult{}
}

func TestAttackVictoryEffects(t *testing.T) {
	e, sim := newTestEngine(t)

	attackerID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	defenderID, err := e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)

	before, err := e.GetCritter(attackerID)
	require.NoError(t, err)

	res := attackUntil(t, e, sim, attackerID, defenderID, true)
	require.NotNil(t, res.RewardID)

	after, err := e.GetCritter(attackerID)
	require.NoError(t, err)
	assert.Equal(t, before.WinCount+1, after.WinCount)
	assert.Equal(t, before.Level+1, after.Level)

	reward, err := e.GetCritter(*res.RewardID)
	require.NoError(t, err)
	assert.Equal(t, after.Genome, reward.Genome)
	owner, err := e.OwnerOf(*res.RewardID)
	require.NoError(t, err)
	assert.Equal(t, accA, owner)
}

func TestAttackDefeatEffects(t *testing.T) {
	e, sim := newTestEngine(t)

	attackerID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	defenderID, err := e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)

	attackerBefore, err := e.GetCritter(attackerID)
	require.NoError(t, err)
	defenderBefore, err := e.GetCritter(defenderID)
	require.NoError(t, err)
	count := e.CritterCount()

	res := attackUntil(t, e, sim, attackerID, defenderID, false)
	require.Nil(t, res.RewardID)

	attackerAfter, err := e.GetCritter(attackerID)
	require.NoError(t, err)
	defenderAfter, err := e.GetCritter(defenderID)
	require.NoError(t, err)

	assert.Equal(t, attackerBefore.LossCount+1, attackerAfter.LossCount)
	assert.Equal(t, attackerBefore.Level, attackerAfter.Level)
	assert.Equal(t, defenderBefore.WinCount+1, defenderAfter.WinCount)
	// Defender is otherwise untouched: no loss, no cooldown.
	assert.Equal(t, defenderBefore.LossCount, defenderAfter.LossCount)
	assert.Equal(t, defenderBefore.ReadyAt, defenderAfter.ReadyAt)

	// Victories may have happened while searching; defeat itself
	// mints nothing beyond those.
	rewards := e.CritterCount() - count
	wins := int(attackerAfter.WinCount - attackerBefore.WinCount)
	assert.Equal(t, wins, rewards)
}

func TestAttackWinRateConvergesToThreshold(t *testing.T) {
	e, sim := newTestEngine(t)

	attackerID, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	defenderID, err := e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)

	const trials = 3000
	wins := 0
	for i := 0; i < trials; i++ {
		sim.Advance(e.Config().Cooldown)
		sim.ObserveTx()
		if i%10 == 0 {
			sim.SealBlock()
		}
		res, err := e.Attack(accA, attackerID, defenderID)
		require.NoError(t, err)
		if res.Won {
			wins++
		}
	}
	rate := float64(wins) / trials
	assert.InDelta(t, 0.70, rate, 0.04)
}

func TestApprovedTransferScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	id, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)

	require.NoError(t, e.Approve(accA, id, accC))
	require.NoError(t, e.TransferFrom(accC, accA, accD, id))

	owner, err := e.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, accD, owner)

	// Replay is refused: accA no longer owns the critter.
	require.ErrorIs(t, e.TransferFrom(accC, accA, accD, id), critter.ErrNotOwner)
}

func TestBalancesSumToCreatedTotal(t *testing.T) {
	e, sim := newTestEngine(t)

	idA, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	_, err = e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)
	_, err = e.FeedAndMultiply(accA, idA, 42, "plain")
	require.NoError(t, err)
	sim.Advance(e.Config().Cooldown)
	require.NoError(t, e.TransferFrom(accA, accA, accC, idA))

	total := e.BalanceOf(accA) + e.BalanceOf(accB) + e.BalanceOf(accC) + e.BalanceOf(accD)
	assert.Equal(t, uint64(e.CritterCount()), total)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	e, sim := newTestEngine(t)

	idA, err := e.CreateRandomCritter(accA, "Zeus")
	require.NoError(t, err)
	_, err = e.CreateRandomCritter(accB, "Hera")
	require.NoError(t, err)
	require.NoError(t, e.LevelUp(accA, idA, e.Config().LevelUpFee))
	require.NoError(t, e.Approve(accA, idA, accC))
	e.SetApprovalForAll(accB, accD, true)

	st := e.Export()

	cfg := DefaultConfig()
	cfg.Admin = accAdmin
	restored := New(cfg, sim, bus.New(), log.NewNop())
	restored.Restore(st)

	assert.Equal(t, e.CritterCount(), restored.CritterCount())
	assert.Equal(t, e.FeeBalance(), restored.FeeBalance())

	owner, err := restored.OwnerOf(idA)
	require.NoError(t, err)
	assert.Equal(t, accA, owner)
	assert.True(t, restored.IsApprovedForAll(accB, accD))

	// Starter flags survive the round trip.
	_, err = restored.CreateRandomCritter(accA, "Again")
	require.ErrorIs(t, err, critter.ErrStarterClaimed)

	// Id assignment continues where it left off.
	id, err := restored.CreateRandomCritter(accC, "Ares")
	require.NoError(t, err)
	assert.Equal(t, critter.ID(2), id)
}
