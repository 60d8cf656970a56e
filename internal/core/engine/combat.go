package engine

import (
	"fmt"

	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// AttackResult reports one resolved attack.
type AttackResult struct {
	AttackerID critter.ID
	DefenderID critter.ID
	Roll       uint64
	Won        bool
	// RewardID is set on victory: a fresh critter carrying the
	// attacker's genome, owned by the attacker.
	RewardID *critter.ID
}

// Attack resolves an attack from the caller's critter against a
// defender. The roll is derived from both ids and the current substrate
// snapshot; a roll below the win threshold wins.
//
// On victory the attacker gains a win, a level and a reward critter; on
// defeat the attacker takes a loss and the defender is credited a win.
// Either way only the attacker cools down — the defender keeps no
// cooldown and takes no counter-damage.
func (e *Engine) Attack(caller registry.Account, attackerID, defenderID critter.ID) (AttackResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	attacker, err := e.store.GetMut(attackerID)
	if err != nil {
		return AttackResult{}, err
	}
	defender, err := e.store.GetMut(defenderID)
	if err != nil {
		return AttackResult{}, err
	}
	if err := e.requireOwner(caller, attackerID); err != nil {
		return AttackResult{}, err
	}
	if !e.isReady(*attacker) {
		return AttackResult{}, critter.ErrCooldown
	}

	roll, err := e.rand.DeriveMod(fmt.Sprintf("%d/%d", attackerID, defenderID), 100)
	if err != nil {
		return AttackResult{}, err
	}
	result := AttackResult{AttackerID: attackerID, DefenderID: defenderID, Roll: roll, Won: roll < e.cfg.WinThreshold}

	if result.Won {
		wins, err := safemath.Add(attacker.WinCount, 1)
		if err != nil {
			return AttackResult{}, err
		}
		level, err := safemath.Add(attacker.Level, 1)
		if err != nil {
			return AttackResult{}, err
		}
		rewardID, err := e.createFromGenome(caller, attacker.Genome)
		if err != nil {
			return AttackResult{}, err
		}
		attacker.WinCount = wins
		attacker.Level = level
		result.RewardID = &rewardID
	} else {
		losses, err := safemath.Add(attacker.LossCount, 1)
		if err != nil {
			return AttackResult{}, err
		}
		defenderWins, err := safemath.Add(defender.WinCount, 1)
		if err != nil {
			return AttackResult{}, err
		}
		attacker.LossCount = losses
		defender.WinCount = defenderWins
	}
	e.triggerCooldown(attacker)

	e.log.Info("attack resolved",
		log.Uint64("attacker", uint64(attackerID)),
		log.Uint64("defender", uint64(defenderID)),
		log.Uint64("roll", roll),
		log.Bool("won", result.Won),
	)
	e.publish(EventCombatResolved, CombatResolvedEvent{
		AttackerID: attackerID,
		DefenderID: defenderID,
		Roll:       roll,
		Won:        result.Won,
		RewardID:   result.RewardID,
	})
	return result, nil
}
