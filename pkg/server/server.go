// Package server implements the federation's client-facing HTTP surface
// (spec.md §4.5): the wire side of the fedapi.FederationAPI contract
// client/httpapi speaks against, routed over a plain net/http.ServeMux.
// Grounded on the teacher's pkg/server/proof_handlers.go handler-struct
// and writeJSON/writeError shape, generalized from one domain's responses
// to this federation's api.ResBody envelope.
package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/mintfed/federation/pkg/api"
	"github.com/mintfed/federation/pkg/consensus"
	"github.com/mintfed/federation/pkg/eventlog"
	"github.com/mintfed/federation/pkg/types"
)

// Broadcaster submits a transaction's wire bytes into CometBFT's mempool,
// the same BroadcastTxSync RPC call the teacher's bft_integration.go
// RealCometBFTEngine uses for its own submit path.
// *github.com/cometbft/cometbft/rpc/client/http.HTTP satisfies this.
type Broadcaster interface {
	BroadcastTxSync(ctx context.Context, tx cmttypes.Tx) (*coretypes.ResultBroadcastTx, error)
}

// Handlers serves the federation's client-facing HTTP API over one
// consensus Engine and its own event log of epoch-level notices.
type Handlers struct {
	engine      *consensus.Engine
	events      *eventlog.Log
	broadcaster Broadcaster
	logger      *log.Logger
}

// NewHandlers constructs Handlers for engine, logging server-internal
// diagnostics through logger (or a default [server]-prefixed logger if
// nil, matching the rest of this codebase's logging convention).
//
// broadcaster submits accepted transactions into CometBFT's mempool so
// they actually reach ABCIAdapter.FinalizeBlock. If nil -- no CometBFT
// node is driving this process, e.g. in tests or a single-peer dev
// setup -- handleSubmit falls back to applying the transaction directly
// through one single-tx epoch, bypassing consensus ordering entirely.
func NewHandlers(engine *consensus.Engine, events *eventlog.Log, broadcaster Broadcaster, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[server] ", log.LstdFlags)
	}
	return &Handlers{engine: engine, events: events, broadcaster: broadcaster, logger: logger}
}

// Mux builds the ServeMux every route is registered on, for cmd/mintd to
// wrap with its own health/metrics endpoints.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", h.handleInfo)
	mux.HandleFunc("/pending", h.handlePending)
	mux.HandleFunc("/events", h.handleEvents)
	mux.HandleFunc("/submit", h.handleSubmit)
	mux.HandleFunc("/output_status", h.handleOutputStatus)
	mux.HandleFunc("/issuance_signature", h.handleIssuanceSignature)
	return mux
}

func (h *Handlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}
	pending, err := h.engine.PendingIssuances()
	if err != nil {
		h.logger.Printf("info: pending issuances: %v", err)
		h.writeError(w, http.StatusInternalServerError, "failed to read pending issuances")
		return
	}
	// Per-tier outstanding-supply accounting would need a federation-wide
	// supply ledger no module maintains today; Coins is left empty rather
	// than faked.
	h.writeJSON(w, http.StatusOK, api.Info(nil, api.Pending{Transactions: pending}))
}

func (h *Handlers) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}
	pending, err := h.engine.PendingIssuances()
	if err != nil {
		h.logger.Printf("pending: %v", err)
		h.writeError(w, http.StatusInternalServerError, "failed to read pending issuances")
		return
	}
	h.writeJSON(w, http.StatusOK, api.PendingBody(api.Pending{Transactions: pending}))
}

func (h *Handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}
	events, err := h.events.Drain()
	if err != nil {
		h.logger.Printf("events: %v", err)
		h.writeError(w, http.StatusInternalServerError, "failed to drain event log")
		return
	}
	h.writeJSON(w, http.StatusOK, api.EventDump(events))
}

// submitRequest/submitResponse are the wire shapes for /submit -- a
// single types.Transaction in, the federation's computed TransactionId
// out, so the client can compare it against its own (S5).
type submitRequest struct {
	Transaction types.Transaction `json:"transaction"`
}

type submitResponse struct {
	TxId types.TransactionId `json:"tx_id"`
}

func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Transaction.Inputs) == 0 && len(req.Transaction.Outputs) == 0 {
		h.writeError(w, http.StatusBadRequest, "empty transaction")
		return
	}
	txid, err := req.Transaction.TxId()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to compute transaction id: "+err.Error())
		return
	}

	if h.broadcaster != nil {
		// Ordering and epoch scheduling happen in the CometBFT
		// mempool/ABCIAdapter path (see pkg/consensus/abci_adapter.go);
		// this only gets the transaction's wire bytes into that path.
		// ABCIAdapter.FinalizeBlock decodes blocks with json.Unmarshal,
		// so the bytes broadcast here must be this same JSON encoding.
		raw, err := json.Marshal(req.Transaction)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "failed to encode transaction: "+err.Error())
			return
		}
		res, err := h.broadcaster.BroadcastTxSync(r.Context(), cmttypes.Tx(raw))
		if err != nil {
			h.logger.Printf("submit: broadcast: %v", err)
			h.writeError(w, http.StatusInternalServerError, "failed to broadcast transaction")
			return
		}
		if res.Code != 0 {
			h.writeError(w, http.StatusBadRequest, "rejected by mempool: "+res.Log)
			return
		}
	} else {
		// No CometBFT node is driving this process (tests, single-peer
		// dev runs without a node wired up): apply directly through one
		// single-tx epoch instead of going through consensus ordering.
		if _, err := h.engine.RunEpoch(consensus.OrderedConsensusInput{
			Transactions: []types.Transaction{req.Transaction},
		}); err != nil {
			h.logger.Printf("submit: run epoch: %v", err)
			h.writeError(w, http.StatusInternalServerError, "failed to apply transaction")
			return
		}
	}

	h.writeJSON(w, http.StatusAccepted, submitResponse{TxId: txid})
}

type outputStatusRequest struct {
	Module   string         `json:"module"`
	OutPoint types.OutPoint `json:"out_point"`
}

func (h *Handlers) handleOutputStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}
	var req outputStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	outcome, err := h.engine.OutputStatus(req.Module, req.OutPoint)
	if err != nil {
		h.logger.Printf("output_status: %v", err)
		h.writeError(w, http.StatusNotFound, "unknown module or output")
		return
	}
	if outcome.State == types.OutcomeUnknown {
		h.writeError(w, http.StatusNotFound, "unknown module or output")
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

type issuanceSignatureRequest struct {
	OutPoint types.OutPoint `json:"out_point"`
}

type issuanceSignatureResponse struct {
	SignatureHex string `json:"signature_hex"`
}

func (h *Handlers) handleIssuanceSignature(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}
	var req issuanceSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sig, err := h.engine.IssuanceSignature(req.OutPoint)
	if err != nil {
		h.logger.Printf("issuance_signature: %v", err)
		h.writeError(w, http.StatusNotFound, "issuance not ready or unknown")
		return
	}
	h.writeJSON(w, http.StatusOK, issuanceSignatureResponse{SignatureHex: hex.EncodeToString(sig)})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, api.Err(message))
}
