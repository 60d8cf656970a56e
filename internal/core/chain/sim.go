package chain

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

var _ State = (*Sim)(nil)

// Sim is a deterministic in-process substrate. Block hashes are derived
// from the genesis seed and block height, time starts at genesis and
// moves only when the caller advances it. Two Sims built from the same
// seed and driven through the same sequence of calls expose identical
// state at every step.
type Sim struct {
	mu sync.Mutex

	seed    string
	height  uint64
	hash    string
	txCount uint64
	now     time.Time
}

// NewSim builds a Sim sealed at block 0 of the given genesis seed.
func NewSim(seed string, genesis time.Time) *Sim {
	s := &Sim{seed: seed, now: genesis}
	s.hash = s.sealHash(0)
	return s
}

func (s *Sim) BlockHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash
}

func (s *Sim) TxCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

func (s *Sim) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Height returns the current block height.
func (s *Sim) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// SealBlock advances to the next block and derives its hash.
func (s *Sim) SealBlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height++
	s.hash = s.sealHash(s.height)
}

// ObserveTx records one sequenced transaction. The server calls it once
// per accepted operation so consecutive operations in the same block see
// distinct counter values.
func (s *Sim) ObserveTx() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
}

// Advance moves the substrate clock forward by d.
func (s *Sim) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// SetNow pins the substrate clock to a fixed instant.
func (s *Sim) SetNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

func (s *Sim) sealHash(height uint64) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%s/%d", s.seed, height))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}
