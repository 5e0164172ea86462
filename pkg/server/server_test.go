package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintfed/federation/pkg/api"
	"github.com/mintfed/federation/pkg/consensus"
	"github.com/mintfed/federation/pkg/eventlog"
	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/modules/mint"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/modules/wallet"
	"github.com/mintfed/federation/pkg/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	signer, err := bls.NewNoopSigner([]byte("server-test-seed"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	registry := module.NewRegistry(
		wallet.NewModule(wallet.FixedVerifier{Value: 100_000}, wallet.DefaultPegInFeeAbsSats),
		mint.NewModule(signer),
	)
	kv := kvdb.NewMemKV()
	engine := consensus.NewEngine(kv, registry, 7, prometheus.NewRegistry())
	events := eventlog.New(kv)
	// No broadcaster: these tests run without a CometBFT node, so
	// handleSubmit falls back to applying directly through one
	// single-tx epoch (see NewHandlers' doc comment).
	h := NewHandlers(engine, events, nil, log.New(log.Writer(), "[test] ", 0))
	return httptest.NewServer(h.Mux())
}

func TestHandleInfo_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/info", "application/json", nil)
	if err != nil {
		t.Fatalf("post /info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHandlePending_EmptyEngine(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pending")
	if err != nil {
		t.Fatalf("get /pending: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body api.ResBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Type != api.ResPending || body.Pending == nil || body.Pending.Transactions != 0 {
		t.Fatalf("unexpected pending body: %+v", body)
	}
}

func TestHandleOutputStatus_UnknownReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	reqBody, _ := json.Marshal(outputStatusRequest{
		Module:   mint.Kind,
		OutPoint: types.OutPoint{OutIdx: 0},
	})
	resp, err := http.Post(srv.URL+"/output_status", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("post /output_status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown output, got %d", resp.StatusCode)
	}
}

func TestHandleSubmit_ComputesTxId(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	in := wallet.EncodeInput(wallet.PegInInput{BitcoinTxid: "feed", Proof: []byte("p"), ValueSats: 100_000})
	out := mint.EncodeOutput(mint.BlindedOutput{Tier: types.Amount(67_108_864), Nonce: []byte("n")})
	tx := types.Transaction{Inputs: []types.Input{in}, Outputs: []types.Output{out}}

	wantTxId, err := tx.TxId()
	if err != nil {
		t.Fatalf("txid: %v", err)
	}

	reqBody, _ := json.Marshal(submitRequest{Transaction: tx})
	resp, err := http.Post(srv.URL+"/submit", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatalf("post /submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TxId != wantTxId {
		t.Fatalf("txid mismatch: got %s want %s", body.TxId, wantTxId)
	}

	// With no broadcaster wired, /submit must have actually applied the
	// transaction (not merely echoed its id) for the output to become
	// queryable here.
	statusReqBody, _ := json.Marshal(outputStatusRequest{
		Module:   mint.Kind,
		OutPoint: types.OutPoint{TxId: wantTxId, OutIdx: 0},
	})
	statusResp, err := http.Post(srv.URL+"/output_status", "application/json", bytes.NewReader(statusReqBody))
	if err != nil {
		t.Fatalf("post /output_status: %v", err)
	}
	defer statusResp.Body.Close()
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusResp.StatusCode)
	}
	var outcome types.Outcome
	if err := json.NewDecoder(statusResp.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.State != types.OutcomeReady {
		t.Fatalf("expected ready outcome after submit, got %s", outcome.State)
	}
}
