// Package random derives pseudo-random values from caller seeds mixed
// with substrate state.
//
// The derivation is reproducible: the same seed against the same block
// hash and transaction counter always yields the same value, which is
// what makes engine operations replayable from the audit journal. The
// flip side is a known, accepted weakness: the substrate state is
// visible before an operation's effect is final, so a party that
// controls transaction ordering can bias outcomes. Callers that need
// order-resistant randomness need a commit/reveal scheme on top; the
// engine deliberately does not provide one.
package random

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// Source derives unsigned values from seeds and the substrate snapshot.
type Source struct {
	state chain.State
}

func New(state chain.State) *Source {
	return &Source{state: state}
}

// Derive hashes seed together with the latest block hash and the
// transaction counter and returns the numeric interpretation of the
// digest. Output is treated as uniform over the uint64 range.
func (s *Source) Derive(seed string) uint64 {
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], s.state.TxCount())

	d := xxhash.New()
	_, _ = d.WriteString(seed)
	_, _ = d.WriteString(s.state.BlockHash())
	_, _ = d.Write(counter[:])
	return d.Sum64()
}

// DeriveMod derives a value reduced modulo m, e.g. m=100 for a
// percentage roll. Fails with safemath.ErrDivisionByZero when m is zero.
func (s *Source) DeriveMod(seed string, m uint64) (uint64, error) {
	return safemath.Mod(s.Derive(seed), m)
}
