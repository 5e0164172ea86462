package consensus

import (
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

// OrderedConsensusInput is what the external broadcast layer delivers to
// RunEpoch for one epoch: the same ordered transaction list and per-module
// consensus items on every honest peer (spec.md §4.3's determinism
// requirement rests entirely on this being identical across peers).
type OrderedConsensusInput struct {
	ConsensusItems []module.ConsensusItem
	Transactions   []types.Transaction
}

// RejectedTx records why one transaction in the epoch did not apply.
type RejectedTx struct {
	TxId   types.TransactionId `json:"tx_id"`
	Reason string              `json:"reason"`
}

// EpochResult summarizes one RunEpoch call.
type EpochResult struct {
	Height   uint64       `json:"height"`
	Applied  int          `json:"applied"`
	Rejected []RejectedTx `json:"rejected"`
}
