package consensus

import (
	"context"
	"encoding/json"
	"fmt"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

// ABCIAdapter satisfies abcitypes.Application by forwarding
// FinalizeBlock/Commit into an Engine's RunEpoch, directly grounded on
// pkg/consensus/abci_validator.go's ValidatorApp. Ordering is still
// delegated to CometBFT (out of scope here); this adapter just lets the
// Engine be driven as a real CometBFT application.
type ABCIAdapter struct {
	engine      *Engine
	pendingTxs  []types.Transaction
	pendingItem []module.ConsensusItem
}

// NewABCIAdapter wraps engine for use as a CometBFT ABCI application.
func NewABCIAdapter(engine *Engine) *ABCIAdapter {
	return &ABCIAdapter{engine: engine}
}

func (a *ABCIAdapter) Info(_ context.Context, _ *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	return &abcitypes.ResponseInfo{
		Data:            "mintfed consensus engine",
		Version:         "1.0.0",
		AppVersion:      1,
		LastBlockHeight: int64(a.engine.Height()),
	}, nil
}

// CheckTx only verifies the transaction decodes; full validation happens
// during FinalizeBlock's RunEpoch call, same as the teacher's CheckTx
// being a lightweight structural pre-check.
func (a *ABCIAdapter) CheckTx(_ context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	var t types.Transaction
	if err := json.Unmarshal(req.Tx, &t); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: "invalid transaction JSON: " + err.Error()}, nil
	}
	if len(t.Inputs) == 0 && len(t.Outputs) == 0 {
		return &abcitypes.ResponseCheckTx{Code: 2, Log: "empty transaction"}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasWanted: 1, GasUsed: 1}, nil
}

func (a *ABCIAdapter) PrepareProposal(_ context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

func (a *ABCIAdapter) ProcessProposal(_ context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	for _, raw := range req.Txs {
		var t types.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// FinalizeBlock decodes every tx in the block and runs one epoch over
// them. The engine advances its own epoch counter by one per call;
// req.Height is not consulted.
func (a *ABCIAdapter) FinalizeBlock(_ context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	txs := make([]types.Transaction, 0, len(req.Txs))
	for _, raw := range req.Txs {
		var t types.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		txs = append(txs, t)
	}

	result, err := a.engine.RunEpoch(OrderedConsensusInput{
		ConsensusItems: a.pendingItem,
		Transactions:   txs,
	})
	if err != nil {
		return nil, fmt.Errorf("abci: finalize block: %w", err)
	}
	a.pendingItem = nil

	txResults := make([]*abcitypes.ExecTxResult, len(req.Txs))
	rejected := make(map[string]string, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected[r.TxId.String()] = r.Reason
	}
	for i, raw := range req.Txs {
		var t types.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			txResults[i] = &abcitypes.ExecTxResult{Code: 1, Log: "invalid transaction JSON"}
			continue
		}
		txid, _ := t.TxId()
		if reason, ok := rejected[txid.String()]; ok {
			txResults[i] = &abcitypes.ExecTxResult{Code: 2, Log: reason}
			continue
		}
		txResults[i] = &abcitypes.ExecTxResult{Code: 0}
	}

	return &abcitypes.ResponseFinalizeBlock{TxResults: txResults}, nil
}

// Commit is a no-op: RunEpoch already committed the epoch's batch
// atomically inside FinalizeBlock. CometBFT still requires the call.
func (a *ABCIAdapter) Commit(_ context.Context, _ *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	return &abcitypes.ResponseCommit{}, nil
}

func (a *ABCIAdapter) Query(_ context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	switch req.Path {
	case "/height":
		return &abcitypes.ResponseQuery{Code: 0, Value: []byte(fmt.Sprintf("%d", a.engine.Height()))}, nil
	default:
		return &abcitypes.ResponseQuery{Code: 1, Log: "unknown query path: " + req.Path}, nil
	}
}

func (a *ABCIAdapter) InitChain(_ context.Context, _ *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	return &abcitypes.ResponseInitChain{}, nil
}

func (a *ABCIAdapter) ExtendVote(_ context.Context, _ *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (a *ABCIAdapter) VerifyVoteExtension(_ context.Context, _ *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (a *ABCIAdapter) ListSnapshots(_ context.Context, _ *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (a *ABCIAdapter) OfferSnapshot(_ context.Context, _ *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ABORT}, nil
}

func (a *ABCIAdapter) LoadSnapshotChunk(_ context.Context, _ *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (a *ABCIAdapter) ApplySnapshotChunk(_ context.Context, _ *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}
