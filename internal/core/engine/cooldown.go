package engine

import "github.com/critterchain/critterchain/internal/core/critter"

// Cooldown discipline: every gated operation checks isReady among its
// preconditions and calls triggerCooldown as its final effect.

// isReady reports whether the substrate clock has reached the record's
// ready time.
func (e *Engine) isReady(c critter.Critter) bool {
	return uint64(e.state.Now().Unix()) >= c.ReadyAt
}

// triggerCooldown pushes the record's ready time one cooldown interval
// past now.
func (e *Engine) triggerCooldown(rec *critter.Critter) {
	rec.ReadyAt = uint64(e.state.Now().Add(e.cfg.Cooldown).Unix())
}
