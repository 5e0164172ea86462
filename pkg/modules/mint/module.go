package mint

import (
	"encoding/hex"
	"encoding/json"
	"math/rand"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/types"
)

const (
	noncePrefix = "m/nonce/"   // m/nonce/<hex nonce> -> "1"
	pendingPrefix = "m/pending/" // m/pending/<out_point> -> json(pendingIssuance)
	outPrefix     = "m/out/"     // m/out/<out_point> -> json(issuanceRecord)
	queueKey      = "m/queue"    // json([]string of out_point keys awaiting signature)
)

type pendingIssuance struct {
	Tier  types.Amount `json:"tier"`
	Nonce []byte       `json:"nonce"`
}

type issuanceRecord struct {
	Tier      types.Amount `json:"tier"`
	Signature []byte       `json:"signature,omitempty"`
	State     string       `json:"state"` // "pending" | "ready"
}

// Module implements module.Module for blind-signature issuance and spend.
type Module struct {
	signer bls.Signer
}

type cache struct {
	signer bls.Signer
}

func (cache) isVerificationCache() {}

func NewModule(signer bls.Signer) *Module {
	return &Module{signer: signer}
}

func (m *Module) Kind() string { return Kind }

func (m *Module) ConsensusProposal(_ *rand.Rand) ([]module.ConsensusItem, error) {
	return nil, nil
}

func (m *Module) BuildVerificationCache(_ []types.Input) (module.VerificationCache, error) {
	return cache{signer: m.signer}, nil
}

func (m *Module) BeginConsensusEpoch(_ *kvdb.BatchTx, _ []module.ConsensusItem, _ *rand.Rand) error {
	return nil
}

func nonceKey(nonce []byte) []byte {
	return []byte(noncePrefix + hex.EncodeToString(nonce))
}

func (m *Module) checkSpend(in SpendInput, c module.VerificationCache) error {
	if len(in.Nonce) == 0 {
		return ErrEmptyNonce
	}
	vc, ok := c.(cache)
	if !ok {
		return module.ErrWrongCacheType
	}
	if !vc.signer.VerifyUnblinded(in.Tier, in.Nonce, in.Signature) {
		return ErrBadSignature
	}
	return nil
}

func (m *Module) ValidateInput(kv kvdb.KV, input types.Input, c module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	if err := m.checkSpend(in, c); err != nil {
		return nil, err
	}
	spent, err := kv.Has(nonceKey(in.Nonce))
	if err != nil {
		return nil, err
	}
	if spent {
		return nil, ErrNonceSpent
	}
	return &module.InputMeta{Amount: in.Tier}, nil
}

func (m *Module) ApplyInput(tx *kvdb.BatchTx, input types.Input, c module.VerificationCache) (*module.InputMeta, error) {
	in, err := DecodeInput(input.Payload)
	if err != nil {
		return nil, err
	}
	if err := m.checkSpend(in, c); err != nil {
		return nil, err
	}
	key := nonceKey(in.Nonce)
	spent, err := tx.Has(key)
	if err != nil {
		return nil, err
	}
	if spent {
		return nil, ErrNonceSpent
	}
	tx.Set(key, []byte{1})
	return &module.InputMeta{Amount: in.Tier}, nil
}

func (m *Module) ValidateOutput(output types.Output) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if !isValidTier(out.Tier) {
		return 0, ErrInvalidTier
	}
	if len(out.Nonce) == 0 {
		return 0, ErrEmptyNonce
	}
	return out.Tier, nil
}

func (m *Module) ApplyOutput(tx *kvdb.BatchTx, output types.Output, outPoint types.OutPoint) (types.Amount, error) {
	out, err := DecodeOutput(output.Payload)
	if err != nil {
		return 0, err
	}
	if !isValidTier(out.Tier) {
		return 0, ErrInvalidTier
	}
	if len(out.Nonce) == 0 {
		return 0, ErrEmptyNonce
	}

	key := outPoint.String()
	rec := issuanceRecord{Tier: out.Tier, State: "pending"}
	raw, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	tx.Set([]byte(outPrefix+key), raw)

	pend := pendingIssuance{Tier: out.Tier, Nonce: out.Nonce}
	praw, err := json.Marshal(pend)
	if err != nil {
		return 0, err
	}
	tx.Set([]byte(pendingPrefix+key), praw)

	queue, err := m.readQueue(tx)
	if err != nil {
		return 0, err
	}
	queue = append(queue, key)
	if err := m.writeQueue(tx, queue); err != nil {
		return 0, err
	}
	return out.Tier, nil
}

func (m *Module) readQueue(tx *kvdb.BatchTx) ([]string, error) {
	raw, err := tx.Get([]byte(queueKey))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var queue []string
	if err := json.Unmarshal(raw, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (m *Module) writeQueue(tx *kvdb.BatchTx, queue []string) error {
	raw, err := json.Marshal(queue)
	if err != nil {
		return err
	}
	tx.Set([]byte(queueKey), raw)
	return nil
}

// EndConsensusEpoch signs every issuance staged this epoch, transitioning
// it from pending to ready. A real threshold scheme would instead gather
// partial signatures across several epochs here; the single-key
// bls.NoopSigner signs outright, so issuance becomes ready the same epoch
// it was requested (well within the ≤2-epoch bound).
func (m *Module) EndConsensusEpoch(tx *kvdb.BatchTx, _ *rand.Rand) error {
	queue, err := m.readQueue(tx)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return nil
	}
	for _, key := range queue {
		praw, err := tx.Get([]byte(pendingPrefix + key))
		if err != nil {
			return err
		}
		if praw == nil {
			continue
		}
		var pend pendingIssuance
		if err := json.Unmarshal(praw, &pend); err != nil {
			return err
		}
		sig, err := m.signer.SignBlinded(pend.Tier, pend.Nonce)
		if err != nil {
			return err
		}
		rec := issuanceRecord{Tier: pend.Tier, Signature: sig, State: "ready"}
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		tx.Set([]byte(outPrefix+key), raw)
		tx.Delete([]byte(pendingPrefix + key))
	}
	return m.writeQueue(tx, nil)
}

func (m *Module) OutputStatus(kv kvdb.KV, outPoint types.OutPoint) (*types.Outcome, error) {
	raw, err := kv.Get([]byte(outPrefix + outPoint.String()))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		out := types.Unknown()
		return &out, nil
	}
	var rec issuanceRecord
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

// Signature returns the federation signature for a ready issuance, for
// the client to attach to the resulting coin. Returns nil if the
// out-point isn't ready yet.
func (m *Module) Signature(kv kvdb.KV, outPoint types.OutPoint) ([]byte, error) {
	raw, err := kv.Get([]byte(outPrefix + outPoint.String()))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrUnknownOutPoint
	}
	var rec issuanceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec.Signature, nil
}

// PendingCount reports how many issuance requests are queued awaiting a
// signature. It reads committed state only, and EndConsensusEpoch signs
// and empties the whole queue before every epoch commits, so this is zero
// after any committed epoch.
func (m *Module) PendingCount(kv kvdb.KV) (int, error) {
	raw, err := kv.Get([]byte(queueKey))
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	var queue []string
	if err := json.Unmarshal(raw, &queue); err != nil {
		return 0, err
	}
	return len(queue), nil
}
