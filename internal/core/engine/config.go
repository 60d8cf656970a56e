package engine

import (
	"time"

	"github.com/critterchain/critterchain/internal/core/registry"
)

const (
	// renameMinLevel unlocks ChangeName.
	renameMinLevel uint32 = 2
	// regenomeMinLevel unlocks ChangeGenome.
	regenomeMinLevel uint32 = 20

	// hybridMarkerPair is the trait pair stamped on cross-species
	// offspring, hybridMarker the value stamped into it when the mixed
	// genome already falls in the marker range.
	hybridMarkerPair     = 1
	hybridMarker   uint8 = 99
	hybridRangeMin uint8 = 90

	// offspringName is the placeholder name for bred and combat-reward
	// critters until their owner renames them.
	offspringName = "NoName"
)

// Config carries the engine's tunable rules.
type Config struct {
	// Cooldown is how long a critter waits after a gated action.
	Cooldown time.Duration
	// LevelUpFee is the minimum payment for LevelUp, in base units.
	LevelUpFee uint64
	// WinThreshold is the attack success bound: a d100 roll strictly
	// below it wins.
	WinThreshold uint64
	// HybridSpecies tags the external donor species whose offspring
	// get the hybrid marker.
	HybridSpecies string
	// Admin is the only account allowed to withdraw accumulated fees.
	Admin registry.Account
}

// DefaultConfig mirrors the production rule set.
func DefaultConfig() Config {
	return Config{
		Cooldown:      24 * time.Hour,
		LevelUpFee:    1_000_000, // 0.001 token at 9 decimals
		WinThreshold:  70,
		HybridSpecies: "kitty",
	}
}
