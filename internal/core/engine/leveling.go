package engine

import (
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// LevelUp raises the critter's level by one against a payment of at
// least the configured fee. Excess payment is kept, not refunded.
func (e *Engine) LevelUp(caller registry.Account, id critter.ID, payment uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetMut(id)
	if err != nil {
		return err
	}
	if err := e.requireOwner(caller, id); err != nil {
		return err
	}
	if payment < e.cfg.LevelUpFee {
		return critter.ErrInsufficientFee
	}
	newLevel, err := safemath.Add(rec.Level, 1)
	if err != nil {
		return err
	}
	newBalance, err := safemath.Add(e.feeBalance, payment)
	if err != nil {
		return err
	}

	rec.Level = newLevel
	e.feeBalance = newBalance

	e.publish(EventLevelUp, LevelUpEvent{ID: id, Level: newLevel})
	return nil
}

// ChangeName renames the critter. Unlocked at level 2.
func (e *Engine) ChangeName(caller registry.Account, id critter.ID, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetMut(id)
	if err != nil {
		return err
	}
	if err := e.requireOwner(caller, id); err != nil {
		return err
	}
	if rec.Level < renameMinLevel {
		return critter.ErrLevelTooLow
	}

	rec.Name = newName
	e.publish(EventRenamed, RenamedEvent{ID: id, Name: newName})
	return nil
}

// ChangeGenome rewrites the critter's genome. Unlocked at level 20.
func (e *Engine) ChangeGenome(caller registry.Account, id critter.ID, newGenome uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetMut(id)
	if err != nil {
		return err
	}
	if err := e.requireOwner(caller, id); err != nil {
		return err
	}
	if rec.Level < regenomeMinLevel {
		return critter.ErrLevelTooLow
	}
	genome, err := safemath.Mod(newGenome, critter.GenomeModulus)
	if err != nil {
		return err
	}

	rec.Genome = genome
	e.publish(EventGenomeChanged, GenomeChangedEvent{ID: id, Genome: genome})
	return nil
}

// Withdraw pays the accumulated fee balance out to the admin account
// and returns the amount. Any other caller is refused.
func (e *Engine) Withdraw(caller registry.Account) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.Admin.IsNull() || caller != e.cfg.Admin {
		return 0, critter.ErrNotAuthorized
	}

	amount := e.feeBalance
	e.feeBalance = 0

	e.log.Info("fees withdrawn", log.Uint64("amount", amount), log.String("to", caller.String()))
	e.publish(EventFeesWithdrawn, FeesWithdrawnEvent{To: caller, Amount: amount})
	return amount, nil
}
