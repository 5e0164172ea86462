package consensus

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/modules/mint"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/modules/wallet"
	"github.com/mintfed/federation/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, *kvdb.MemKV) {
	t.Helper()
	signer, err := bls.NewNoopSigner([]byte("deterministic-test-seed"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	registry := module.NewRegistry(
		wallet.NewModule(wallet.FixedVerifier{Value: 100_000}, wallet.DefaultPegInFeeAbsSats),
		mint.NewModule(signer),
	)
	kv := kvdb.NewMemKV()
	return NewEngine(kv, registry, 42, prometheus.NewRegistry()), kv
}

func pegInTx() types.Transaction {
	in := wallet.EncodeInput(wallet.PegInInput{
		BitcoinTxid: "abc123",
		Proof:       []byte("proof"),
		ValueSats:   100_000,
	})
	out := mint.EncodeOutput(mint.BlindedOutput{
		Tier:  types.Amount(67_108_864), // 2^26 msat, a valid tier not exceeding the peg-in value
		Nonce: []byte("nonce-1"),
	})
	return types.Transaction{Inputs: []types.Input{in}, Outputs: []types.Output{out}}
}

func TestRunEpoch_PegInYieldsReadyIssuance(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.RunEpoch(OrderedConsensusInput{Transactions: []types.Transaction{pegInTx()}})
	if err != nil {
		t.Fatalf("run epoch: %v", err)
	}
	if result.Applied != 1 || len(result.Rejected) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	txid, err := pegInTx().TxId()
	if err != nil {
		t.Fatalf("txid: %v", err)
	}
	outPoint := types.OutPoint{TxId: txid, OutIdx: 0}

	outcome, err := engine.OutputStatus(mint.Kind, outPoint)
	if err != nil {
		t.Fatalf("output status: %v", err)
	}
	if outcome.State != types.OutcomeReady {
		t.Fatalf("expected ready outcome, got %s", outcome.State)
	}
}

func TestRunEpoch_DuplicateSubmissionRejected(t *testing.T) {
	engine, _ := newTestEngine(t)
	tx := pegInTx()

	result, err := engine.RunEpoch(OrderedConsensusInput{Transactions: []types.Transaction{tx, tx}})
	if err != nil {
		t.Fatalf("run epoch: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("expected exactly one applied transaction, got %d", result.Applied)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Reason != "already-applied" {
		t.Fatalf("expected one already-applied rejection, got %+v", result.Rejected)
	}
}

func TestRunEpoch_EmptyTransactionRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.RunEpoch(OrderedConsensusInput{Transactions: []types.Transaction{{}}})
	if err != nil {
		t.Fatalf("run epoch: %v", err)
	}
	if result.Applied != 0 || len(result.Rejected) != 1 || result.Rejected[0].Reason != "empty-transaction" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// TestRunEpoch_InvalidOutputRecordedAsInvalidOutput asserts an output-stage
// validation failure (here, mint.ErrInvalidTier) is recorded with the
// invalid-output reason, distinct from an input-stage invalid-input
// failure, per spec.md §7's two-kind taxonomy.
func TestRunEpoch_InvalidOutputRecordedAsInvalidOutput(t *testing.T) {
	engine, _ := newTestEngine(t)

	in := wallet.EncodeInput(wallet.PegInInput{
		BitcoinTxid: "abc123",
		Proof:       []byte("proof"),
		ValueSats:   100_000,
	})
	out := mint.EncodeOutput(mint.BlindedOutput{
		Tier:  types.Amount(3), // not a power of two: rejected by mint.ErrInvalidTier
		Nonce: []byte("nonce-1"),
	})
	tx := types.Transaction{Inputs: []types.Input{in}, Outputs: []types.Output{out}}

	result, err := engine.RunEpoch(OrderedConsensusInput{Transactions: []types.Transaction{tx}})
	if err != nil {
		t.Fatalf("run epoch: %v", err)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Reason != "invalid-output" {
		t.Fatalf("expected one invalid-output rejection, got %+v", result.Rejected)
	}

	txid, err := tx.TxId()
	if err != nil {
		t.Fatalf("txid: %v", err)
	}
	outcome, err := engine.OutputStatus(mint.Kind, types.OutPoint{TxId: txid, OutIdx: 0})
	if err != nil {
		t.Fatalf("output status: %v", err)
	}
	if outcome.State != types.OutcomeError || outcome.Error != "invalid-output" {
		t.Fatalf("expected invalid-output error outcome, got %+v", outcome)
	}
}

// TestRunEpoch_Deterministic drives two independently constructed engines
// over the same ordered input and asserts their post-epoch databases are
// byte-identical (S6).
func TestRunEpoch_Deterministic(t *testing.T) {
	engineA, kvA := newTestEngine(t)
	engineB, kvB := newTestEngine(t)

	input := OrderedConsensusInput{Transactions: []types.Transaction{pegInTx()}}

	if _, err := engineA.RunEpoch(input); err != nil {
		t.Fatalf("engine A run epoch: %v", err)
	}
	if _, err := engineB.RunEpoch(input); err != nil {
		t.Fatalf("engine B run epoch: %v", err)
	}

	dumpA, dumpB := kvA.Dump(), kvB.Dump()
	if len(dumpA) != len(dumpB) {
		t.Fatalf("key count mismatch: %d vs %d", len(dumpA), len(dumpB))
	}
	for k, v := range dumpA {
		other, ok := dumpB[k]
		if !ok {
			t.Fatalf("key %q present in A but not B", k)
		}
		if !bytes.Equal(v, other) {
			t.Fatalf("value mismatch for key %q: %x vs %x", k, v, other)
		}
	}
}
