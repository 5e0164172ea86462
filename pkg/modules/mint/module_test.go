package mint

import (
	"testing"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/types"
)

func newSigner(t *testing.T) *bls.NoopSigner {
	t.Helper()
	s, err := bls.NewNoopSigner([]byte("test-seed"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func outPointFor(seed string, idx uint32) types.OutPoint {
	return types.OutPoint{TxId: types.HashTransactionId([]byte(seed)), OutIdx: idx}
}

func TestValidateOutput_RejectsNonPowerOfTwoTier(t *testing.T) {
	m := NewModule(newSigner(t))
	out := EncodeOutput(BlindedOutput{Tier: 3, Nonce: []byte("n")})

	if _, err := m.ValidateOutput(out); err != ErrInvalidTier {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestIssuanceBecomesReadyAfterEndEpoch(t *testing.T) {
	m := NewModule(newSigner(t))
	kv := kvdb.NewMemKV()
	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)

	out := EncodeOutput(BlindedOutput{Tier: 8, Nonce: []byte("coin-nonce")})
	outPoint := outPointFor("issuance-tx", 0)

	if _, err := m.ApplyOutput(tx, out, outPoint); err != nil {
		t.Fatalf("apply output: %v", err)
	}

	if err := m.EndConsensusEpoch(tx, nil); err != nil {
		t.Fatalf("end epoch: %v", err)
	}
	if err := kvdb.ApplyBatch(kv, batch); err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	ready, err := m.OutputStatus(kv, outPoint)
	if err != nil {
		t.Fatalf("output status: %v", err)
	}
	if ready.State != types.OutcomeReady {
		t.Fatalf("expected ready, got %s", ready.State)
	}

	sig, err := m.Signature(kv, outPoint)
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if len(sig) == 0 {
		t.Fatal("expected a non-empty signature after signing")
	}
}

func TestSpendRejectsAlreadySpentNonce(t *testing.T) {
	m := NewModule(newSigner(t))
	kv := kvdb.NewMemKV()
	c, err := m.BuildVerificationCache(nil)
	if err != nil {
		t.Fatalf("build cache: %v", err)
	}

	nonce := []byte("spendable-nonce")
	sig, err := newSigner(t).SignBlinded(8, nonce)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	in := EncodeInput(SpendInput{Tier: 8, Nonce: nonce, Signature: sig})

	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)
	if _, err := m.ApplyInput(tx, in, c); err != nil {
		t.Fatalf("first spend: %v", err)
	}
	if _, err := m.ApplyInput(tx, in, c); err != ErrNonceSpent {
		t.Fatalf("expected ErrNonceSpent, got %v", err)
	}
}
