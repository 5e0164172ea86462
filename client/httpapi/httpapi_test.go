package httpapi

import (
	"context"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintfed/federation/pkg/consensus"
	"github.com/mintfed/federation/pkg/eventlog"
	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/modules/mint"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/modules/wallet"
	"github.com/mintfed/federation/pkg/server"
	"github.com/mintfed/federation/pkg/types"
)

// newTestFederation spins up a real pkg/server.Handlers over a fresh
// in-memory engine, so this package's wire-decoding can be exercised
// against the same handlers cmd/mintd serves, not a hand-rolled stub.
func newTestFederation(t *testing.T) *httptest.Server {
	t.Helper()
	signer, err := bls.NewNoopSigner([]byte("httpapi-test-seed"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	registry := module.NewRegistry(
		wallet.NewModule(wallet.FixedVerifier{Value: 100_000}, wallet.DefaultPegInFeeAbsSats),
		mint.NewModule(signer),
	)
	kv := kvdb.NewMemKV()
	engine := consensus.NewEngine(kv, registry, 11, prometheus.NewRegistry())
	events := eventlog.New(kv)
	// No broadcaster wired: no CometBFT node runs in this test, so the
	// server's handleSubmit applies transactions directly (see
	// server.NewHandlers' doc comment).
	h := server.NewHandlers(engine, events, nil, log.New(log.Writer(), "[test] ", 0))
	return httptest.NewServer(h.Mux())
}

func TestClient_PendingRoundTrip(t *testing.T) {
	srv := newTestFederation(t)
	defer srv.Close()

	c := New(srv.URL, nil)
	body, err := c.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if body.Pending == nil || body.Pending.Transactions != 0 {
		t.Fatalf("unexpected pending body: %+v", body)
	}
}

func TestClient_SubmitAndOutputStatus(t *testing.T) {
	srv := newTestFederation(t)
	defer srv.Close()

	c := New(srv.URL, nil)

	in := wallet.EncodeInput(wallet.PegInInput{BitcoinTxid: "abc", Proof: []byte("p"), ValueSats: 100_000})
	out := mint.EncodeOutput(mint.BlindedOutput{Tier: types.Amount(67_108_864), Nonce: []byte("n")})
	tx := types.Transaction{Inputs: []types.Input{in}, Outputs: []types.Output{out}}

	ctx := context.Background()
	txid, err := c.SubmitTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	wantTxId, err := tx.TxId()
	if err != nil {
		t.Fatalf("txid: %v", err)
	}
	if txid != wantTxId {
		t.Fatalf("txid mismatch: got %s want %s", txid, wantTxId)
	}

	// With no broadcaster wired, the server applies submitted
	// transactions directly, so the output must already be queryable.
	outcome, err := c.OutputStatus(ctx, mint.Kind, types.OutPoint{TxId: txid, OutIdx: 0})
	if err != nil {
		t.Fatalf("output status: %v", err)
	}
	if outcome.State != types.OutcomeReady {
		t.Fatalf("expected ready outcome, got %s", outcome.State)
	}
}

func TestClient_IssuanceSignature_NotReady(t *testing.T) {
	srv := newTestFederation(t)
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.IssuanceSignature(context.Background(), types.OutPoint{OutIdx: 0})
	if err == nil {
		t.Fatal("expected error for an issuance that was never submitted")
	}
}
