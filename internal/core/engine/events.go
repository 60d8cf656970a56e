package engine

import (
	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/registry"
)

// Event types published by the engine services. Ownership events are
// published by the registry under its own types.
const (
	EventCritterCreated = "critter.created"
	EventLevelUp        = "critter.level_up"
	EventRenamed        = "critter.renamed"
	EventGenomeChanged  = "critter.genome_changed"
	EventCombatResolved = "combat.resolved"
	EventFeesWithdrawn  = "fees.withdrawn"
)

// CritterCreatedEvent notifies a freshly minted critter, whether
// starter, offspring or combat reward.
type CritterCreatedEvent struct {
	ID     critter.ID       `json:"id"`
	Owner  registry.Account `json:"owner"`
	Name   string           `json:"name"`
	Genome uint64           `json:"genome"`
}

// LevelUpEvent notifies a paid level increase.
type LevelUpEvent struct {
	ID    critter.ID `json:"id"`
	Level uint32     `json:"level"`
}

// RenamedEvent notifies a name change.
type RenamedEvent struct {
	ID   critter.ID `json:"id"`
	Name string     `json:"name"`
}

// GenomeChangedEvent notifies a post-unlock genome edit.
type GenomeChangedEvent struct {
	ID     critter.ID `json:"id"`
	Genome uint64     `json:"genome"`
}

// CombatResolvedEvent notifies one resolved attack.
type CombatResolvedEvent struct {
	AttackerID critter.ID  `json:"attacker_id"`
	DefenderID critter.ID  `json:"defender_id"`
	Roll       uint64      `json:"roll"`
	Won        bool        `json:"won"`
	RewardID   *critter.ID `json:"reward_id,omitempty"`
}

// FeesWithdrawnEvent notifies an admin fee payout.
type FeesWithdrawnEvent struct {
	To     registry.Account `json:"to"`
	Amount uint64           `json:"amount"`
}
