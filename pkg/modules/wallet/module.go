package wallet

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

// DefaultPegInFeeAbsSats is the absolute peg-in fee (§S1/§S2): a peg-in
// whose verified value does not exceed this is rejected as
// PegInAmountTooSmall rather than issued at a reduced (or negative)
// amount.
const DefaultPegInFeeAbsSats = 500

const (
	peginPrefix  = "w/pegin/"  // w/pegin/<bitcoin txid> -> "1"
	outputPrefix = "w/out/"    // w/out/<out_point> -> json(outputRecord)
)

// outputRecord is the persisted status of one peg-out output.
type outputRecord struct {
	Output PegOutOutput `json:"output"`
	State  string       `json:"state"` // "pending" | "ready"
}

// Module implements module.Module for on-chain peg-in/peg-out.
type Module struct {
	verifier     PegInVerifier
	feeAbsSats   uint64
}

// cache is the marker VerificationCache wallet builds; peg-in validation
// has no amortizable pure precomputation beyond the injected verifier call
// itself, so the cache only carries the verifier through.
type cache struct {
	verifier PegInVerifier
}

func (cache) isVerificationCache() {}

// NewModule constructs the wallet module with the given SPV proof
// collaborator and absolute peg-in fee (in satoshis).
func NewModule(verifier PegInVerifier, feeAbsSats uint64) *Module {
	return &Module{verifier: verifier, feeAbsSats: feeAbsSats}
}

func (m *Module) Kind() string { return Kind }

func (m *Module) ConsensusProposal(_ *rand.Rand) ([]module.ConsensusItem, error) {
	return nil, nil
}

func (m *Module) BuildVerificationCache(_ []types.Input) (module.VerificationCache, error) {
	return cache{verifier: m.verifier}, nil
}

func (m *Module) BeginConsensusEpoch(_ *kvdb.BatchTx, _ []module.ConsensusItem, _ *rand.Rand) error {
	return nil
}

func (m *Module) EndConsensusEpoch(_ *kvdb.BatchTx, _ *rand.Rand) error {
	return nil
}

func (m *Module) verify(in PegInInput, c module.VerificationCache) (uint64, error) {
	vc, ok := c.(cache)
	if !ok {
		return 0, module.ErrWrongCacheType
	}
	valueSats, err := vc.verifier.VerifyTxOutProof(in.BitcoinTxid, in.Proof)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if valueSats <= m.feeAbsSats {
		return 0, ErrPegInTooSmall
	}
	return valueSats, nil
}

func (m *Module) ValidateInput(kv kvdb.KV, input types.Input, c module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	valueSats, err := m.verify(in, c)
	if err != nil {
		return nil, err
	}
	has, err := kv.Has([]byte(peginPrefix + in.BitcoinTxid))
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrAlreadyPegged
	}
	amount := types.FromSats(valueSats - m.feeAbsSats)
	return &module.InputMeta{Amount: amount}, nil
}

func (m *Module) ApplyInput(tx *kvdb.BatchTx, input types.Input, c module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	valueSats, err := m.verify(in, c)
	if err != nil {
		return nil, err
	}
	key := []byte(peginPrefix + in.BitcoinTxid)
	has, err := tx.Has(key)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrAlreadyPegged
	}
	tx.Set(key, []byte{1})
	amount := types.FromSats(valueSats - m.feeAbsSats)
	return &module.InputMeta{Amount: amount}, nil
}

func (m *Module) ValidateOutput(output types.Output) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if out.DestinationAddress == "" {
		return 0, ErrInvalidDestination
	}
	return out.Value, nil
}

func (m *Module) ApplyOutput(tx *kvdb.BatchTx, output types.Output, outPoint types.OutPoint) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if out.DestinationAddress == "" {
		return 0, ErrInvalidDestination
	}
	rec := outputRecord{Output: out, State: "pending"}
	raw, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	tx.Set([]byte(outputPrefix+outPoint.String()), raw)
	return out.Value, nil
}

func (m *Module) OutputStatus(kv kvdb.KV, outPoint types.OutPoint) (*types.Outcome, error) {
	raw, err := kv.Get([]byte(outputPrefix + outPoint.String()))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		out := types.Unknown()
		return &out, nil
	}
	var rec outputRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	switch rec.State {
	case "ready":
		out := types.Ready()
		return &out, nil
	default:
		out := types.Pending()
		return &out, nil
	}
}

// MarkSettled transitions a peg-out output's status to ready, modeling the
// external chain observer (out of scope for this module) confirming the
// withdrawal broadcast. Test harnesses and the real observer integration
// call this once settlement is seen on-chain.
func MarkSettled(kv kvdb.KV, outPoint types.OutPoint) error {
	key := []byte(outputPrefix + outPoint.String())
	raw, err := kv.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrUnknownOutPoint
	}
	var rec outputRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	rec.State = "ready"
	out, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return kv.Set(key, out)
}
