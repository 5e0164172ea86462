package ln

import (
	"crypto/sha256"
	"testing"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/types"
)

func outPointFor(seed string, idx uint32) types.OutPoint {
	return types.OutPoint{TxId: types.HashTransactionId([]byte(seed)), OutIdx: idx}
}

func TestClaimSettlesEscrow(t *testing.T) {
	m := NewModule()
	kv := kvdb.NewMemKV()
	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)

	preimage := []byte("secret-preimage")
	hash := sha256.Sum256(preimage)
	pubKey := []byte("payee-pub-key")

	fundOut := EncodeOutput(FundingOutput{InvoiceHash: hash[:], Amount: 5_000_000, PayeePubKey: pubKey})
	outPoint := outPointFor("funding-tx", 0)
	if _, err := m.ApplyOutput(tx, fundOut, outPoint); err != nil {
		t.Fatalf("apply output: %v", err)
	}

	claimIn := EncodeInput(ClaimInput{InvoiceHash: hash[:], Preimage: preimage, PubKey: pubKey})
	cache, err := m.BuildVerificationCache(nil)
	if err != nil {
		t.Fatalf("build cache: %v", err)
	}
	meta, err := m.ApplyInput(tx, claimIn, cache)
	if err != nil {
		t.Fatalf("apply input: %v", err)
	}
	if meta.Amount != 5_000_000 {
		t.Fatalf("expected amount 5000000, got %d", meta.Amount)
	}
	if len(meta.Keys) != 1 || string(meta.Keys[0]) != string(pubKey) {
		t.Fatalf("expected claimant pub key reported as signer, got %v", meta.Keys)
	}

	if err := kvdb.ApplyBatch(kv, batch); err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	status, err := m.OutputStatus(kv, outPoint)
	if err != nil {
		t.Fatalf("output status: %v", err)
	}
	if status.State != types.OutcomeReady {
		t.Fatalf("expected ready after claim, got %s", status.State)
	}
}

func TestClaimRejectsWrongPreimage(t *testing.T) {
	m := NewModule()
	kv := kvdb.NewMemKV()
	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)

	hash := sha256.Sum256([]byte("real-preimage"))
	pubKey := []byte("payee-pub-key")
	fundOut := EncodeOutput(FundingOutput{InvoiceHash: hash[:], Amount: 1000, PayeePubKey: pubKey})
	outPoint := outPointFor("funding-tx-2", 0)
	if _, err := m.ApplyOutput(tx, fundOut, outPoint); err != nil {
		t.Fatalf("apply output: %v", err)
	}

	claimIn := EncodeInput(ClaimInput{InvoiceHash: hash[:], Preimage: []byte("wrong-preimage"), PubKey: pubKey})
	cache, _ := m.BuildVerificationCache(nil)
	if _, err := m.ApplyInput(tx, claimIn, cache); err != ErrPreimageMismatch {
		t.Fatalf("expected ErrPreimageMismatch, got %v", err)
	}
}
