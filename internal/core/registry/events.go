package registry

import "github.com/critterchain/critterchain/internal/core/critter"

// Event types published by the ledger.
const (
	EventTransfer       = "asset.transfer"
	EventApproval       = "asset.approval"
	EventApprovalForAll = "asset.approval_for_all"
)

// TransferEvent notifies an ownership change. Mints carry the null
// account as From.
type TransferEvent struct {
	From Account    `json:"from"`
	To   Account    `json:"to"`
	ID   critter.ID `json:"id"`
}

// ApprovalEvent notifies a single-slot approval change.
type ApprovalEvent struct {
	Owner    Account    `json:"owner"`
	Approved Account    `json:"approved"`
	ID       critter.ID `json:"id"`
}

// ApprovalForAllEvent notifies a blanket operator grant or revocation.
type ApprovalForAllEvent struct {
	Owner    Account `json:"owner"`
	Operator Account `json:"operator"`
	Approved bool    `json:"approved"`
}
