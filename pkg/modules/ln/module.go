package ln

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

const (
	invoicePrefix = "ln/invoice/" // ln/invoice/<hex hash> -> out_point string
	outPrefix     = "ln/out/"     // ln/out/<out_point> -> json(escrowRecord)
)

type escrowRecord struct {
	Amount      types.Amount `json:"amount"`
	PayeePubKey []byte       `json:"payee_pub_key"`
	InvoiceHash []byte       `json:"invoice_hash"`
	State       string       `json:"state"` // "pending" | "ready"
}

// Module implements module.Module for lightning-style escrow funding and
// preimage-gated claiming.
type Module struct{}

type cache struct{}

func (cache) isVerificationCache() {}

func NewModule() *Module { return &Module{} }

func (m *Module) Kind() string { return Kind }

func (m *Module) ConsensusProposal(_ *rand.Rand) ([]module.ConsensusItem, error) {
	return nil, nil
}

func (m *Module) BuildVerificationCache(_ []types.Input) (module.VerificationCache, error) {
	return cache{}, nil
}

func (m *Module) BeginConsensusEpoch(_ *kvdb.BatchTx, _ []module.ConsensusItem, _ *rand.Rand) error {
	return nil
}

func (m *Module) EndConsensusEpoch(_ *kvdb.BatchTx, _ *rand.Rand) error {
	return nil
}

func invoiceKey(hash []byte) []byte {
	return []byte(invoicePrefix + hex.EncodeToString(hash))
}

func checkClaim(in ClaimInput, rec escrowRecord) error {
	if rec.State == "ready" {
		return ErrAlreadyClaimed
	}
	sum := sha256.Sum256(in.Preimage)
	if !bytes.Equal(sum[:], rec.InvoiceHash) {
		return ErrPreimageMismatch
	}
	if !bytes.Equal(in.PubKey, rec.PayeePubKey) {
		return ErrPubKeyMismatch
	}
	return nil
}

func (m *Module) ValidateInput(kv kvdb.KV, input types.Input, _ module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	if len(in.InvoiceHash) != sha256.Size {
		return nil, ErrInvalidInvoiceHash
	}
	outPointKey, err := kv.Get(invoiceKey(in.InvoiceHash))
	if err != nil {
		return nil, err
	}
	if outPointKey == nil {
		return nil, ErrUnknownInvoice
	}
	raw, err := kv.Get([]byte(outPrefix + string(outPointKey)))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrUnknownInvoice
	}
	var rec escrowRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if err := checkClaim(in, rec); err != nil {
		return nil, err
	}
	return &module.InputMeta{Amount: rec.Amount, Keys: [][]byte{in.PubKey}}, nil
}

func (m *Module) ApplyInput(tx *kvdb.BatchTx, input types.Input, _ module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	if len(in.InvoiceHash) != sha256.Size {
		return nil, ErrInvalidInvoiceHash
	}
	outPointKey, err := tx.Get(invoiceKey(in.InvoiceHash))
	if err != nil {
		return nil, err
	}
	if outPointKey == nil {
		return nil, ErrUnknownInvoice
	}
	recKey := []byte(outPrefix + string(outPointKey))
	raw, err := tx.Get(recKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrUnknownInvoice
	}
	var rec escrowRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if err := checkClaim(in, rec); err != nil {
		return nil, err
	}
	rec.State = "ready"
	out, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	tx.Set(recKey, out)
	return &module.InputMeta{Amount: rec.Amount, Keys: [][]byte{in.PubKey}}, nil
}

func (m *Module) ValidateOutput(output types.Output) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if len(out.InvoiceHash) != sha256.Size {
		return 0, ErrInvalidInvoiceHash
	}
	if len(out.PayeePubKey) == 0 {
		return 0, ErrPubKeyMismatch
	}
	return out.Amount, nil
}

func (m *Module) ApplyOutput(tx *kvdb.BatchTx, output types.Output, outPoint types.OutPoint) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if len(out.InvoiceHash) != sha256.Size {
		return 0, ErrInvalidInvoiceHash
	}
	if len(out.PayeePubKey) == 0 {
		return 0, ErrPubKeyMismatch
	}
	rec := escrowRecord{
		Amount:      out.Amount,
		PayeePubKey: out.PayeePubKey,
		InvoiceHash: out.InvoiceHash,
		State:       "pending",
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	tx.Set(invoiceKey(out.InvoiceHash), []byte(outPoint.String()))
	tx.Set([]byte(outPrefix+outPoint.String()), raw)
	return out.Amount, nil
}

func (m *Module) OutputStatus(kv kvdb.KV, outPoint types.OutPoint) (*types.Outcome, error) {
	raw, err := kv.Get([]byte(outPrefix + outPoint.String()))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		o := types.Unknown()
		return &o, nil
	}
	var rec escrowRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.State == "ready" {
		o := types.Ready()
		return &o, nil
	}
	o := types.Pending()
	return &o, nil
}
