// Package chain exposes the slice of execution-substrate state the engine
// is allowed to observe: the latest block hash, the running transaction
// counter and the current time. The substrate itself (sequencing,
// consensus, commitment) lives outside this module.
package chain

import "time"

// State is a read-only view of the substrate's visible state. The
// substrate advances it between operations, never during one, so within
// a single operation every read is from the same snapshot.
type State interface {
	// BlockHash returns the hash of the most recently sealed block.
	BlockHash() string
	// TxCount returns the number of transactions sequenced so far.
	TxCount() uint64
	// Now returns the substrate's current timestamp.
	Now() time.Time
}
