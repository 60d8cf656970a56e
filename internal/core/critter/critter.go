// Package critter holds the canonical creature records and the store
// that assigns their identifiers. Records carry no behavior; the engine
// services own every mutation rule.
package critter

// ID identifies one critter. IDs are assigned monotonically starting at
// zero and are never reused.
type ID uint64

const (
	// GenomeDigits is the decimal width of every genome.
	GenomeDigits = 16
	// GenomeModulus bounds genomes to exactly GenomeDigits digits
	// (leading zeros count as digits).
	GenomeModulus uint64 = 1e16
	// TraitPairs is the number of two-digit traits in a genome.
	TraitPairs = GenomeDigits / 2
)

// Critter is one creature record.
type Critter struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Genome    uint64 `json:"genome"`
	Level     uint32 `json:"level"`
	ReadyAt   uint64 `json:"ready_at"` // unix seconds; gated actions refused before this
	WinCount  uint16 `json:"win_count"`
	LossCount uint16 `json:"loss_count"`
}

// TraitPair extracts the two-digit trait at pair index i, counting from
// the least significant pair. Total for any genome value and any i in
// [0, TraitPairs); out-of-range indexes read as zero.
func TraitPair(genome uint64, i int) uint8 {
	if i < 0 || i >= TraitPairs {
		return 0
	}
	for ; i > 0; i-- {
		genome /= 100
	}
	return uint8(genome % 100)
}

// WithTraitPair returns genome with the two-digit trait at pair index i
// replaced by v%100. Out-of-range indexes leave the genome unchanged.
func WithTraitPair(genome uint64, i int, v uint8) uint64 {
	if i < 0 || i >= TraitPairs {
		return genome
	}
	scale := uint64(1)
	for k := 0; k < i; k++ {
		scale *= 100
	}
	old := genome / scale % 100
	return genome - old*scale + uint64(v%100)*scale
}
