package wallet

import (
	"testing"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

func outPointFor(seed string, idx uint32) types.OutPoint {
	return types.OutPoint{TxId: types.HashTransactionId([]byte(seed)), OutIdx: idx}
}

func TestValidateInput_RejectsBelowFee(t *testing.T) {
	m := NewModule(FixedVerifier{Value: 400}, DefaultPegInFeeAbsSats)
	kv := kvdb.NewMemKV()
	c, err := m.BuildVerificationCache(nil)
	if err != nil {
		t.Fatalf("build cache: %v", err)
	}
	in := EncodeInput(PegInInput{BitcoinTxid: "t1", Proof: []byte("p"), ValueSats: 400})

	if _, err := m.ValidateInput(kv, in, c); err != ErrPegInTooSmall {
		t.Fatalf("expected ErrPegInTooSmall, got %v", err)
	}
}

func TestApplyInput_RejectsDoublePegIn(t *testing.T) {
	m := NewModule(FixedVerifier{Value: 100_000}, DefaultPegInFeeAbsSats)
	kv := kvdb.NewMemKV()
	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)
	c, _ := m.BuildVerificationCache(nil)

	in := EncodeInput(PegInInput{BitcoinTxid: "dup-tx", Proof: []byte("p"), ValueSats: 100_000})

	if _, err := m.ApplyInput(tx, in, c); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := m.ApplyInput(tx, in, c); err != ErrAlreadyPegged {
		t.Fatalf("expected ErrAlreadyPegged on second apply, got %v", err)
	}
}

func TestOutputStatus_UnknownThenPendingThenReady(t *testing.T) {
	m := NewModule(FixedVerifier{Value: 100_000}, DefaultPegInFeeAbsSats)
	kv := kvdb.NewMemKV()
	batch := kvdb.NewBatch()
	tx := batch.Tx(kv)

	out := EncodeOutput(PegOutOutput{DestinationAddress: "bc1q...", Value: 50_000_000})
	outPoint := outPointFor("txid-1", 0)

	unknown, err := m.OutputStatus(kv, outPoint)
	if err != nil {
		t.Fatalf("status before apply: %v", err)
	}
	if unknown.State != "unknown" {
		t.Fatalf("expected unknown, got %s", unknown.State)
	}

	if _, err := m.ApplyOutput(tx, out, outPoint); err != nil {
		t.Fatalf("apply output: %v", err)
	}
	if err := kvdb.ApplyBatch(kv, batch); err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	pending, err := m.OutputStatus(kv, outPoint)
	if err != nil {
		t.Fatalf("status after apply: %v", err)
	}
	if pending.State != "pending" {
		t.Fatalf("expected pending, got %s", pending.State)
	}

	if err := MarkSettled(kv, outPoint); err != nil {
		t.Fatalf("mark settled: %v", err)
	}
	ready, err := m.OutputStatus(kv, outPoint)
	if err != nil {
		t.Fatalf("status after settle: %v", err)
	}
	if ready.State != "ready" {
		t.Fatalf("expected ready, got %s", ready.State)
	}
}

func TestValidateInput_WrongCacheTypeRejected(t *testing.T) {
	m := NewModule(FixedVerifier{Value: 100_000}, DefaultPegInFeeAbsSats)
	kv := kvdb.NewMemKV()
	in := EncodeInput(PegInInput{BitcoinTxid: "t1", Proof: []byte("p")})

	if _, err := m.ValidateInput(kv, in, nil); err != module.ErrWrongCacheType {
		t.Fatalf("expected ErrWrongCacheType, got %v", err)
	}
}
