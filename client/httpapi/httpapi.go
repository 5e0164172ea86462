// Package httpapi implements fedapi.FederationAPI over plain net/http,
// speaking the wire protocol pkg/server exposes. No REST framework is
// used, matching the teacher's handler style on the server side.
package httpapi

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mintfed/federation/pkg/api"
	"github.com/mintfed/federation/pkg/fedapi"
	"github.com/mintfed/federation/pkg/types"
)

var _ fedapi.FederationAPI = (*Client)(nil)

// Client is a fedapi.FederationAPI backed by one federation peer's HTTP
// address. It does not reconcile multiple peers' answers itself; a
// quorum-reconciling handle, if ever needed, wraps several of these.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds an httpapi.Client against baseURL (e.g. "http://peer0:8080"),
// using httpClient if non-nil or http.DefaultClient otherwise.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpapi: %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) (int, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) Info(ctx context.Context) (api.ResBody, error) {
	var body api.ResBody
	err := c.getJSON(ctx, "/info", &body)
	return body, err
}

func (c *Client) Pending(ctx context.Context) (api.ResBody, error) {
	var body api.ResBody
	err := c.getJSON(ctx, "/pending", &body)
	return body, err
}

func (c *Client) Events(ctx context.Context) (api.ResBody, error) {
	var body api.ResBody
	err := c.getJSON(ctx, "/events", &body)
	return body, err
}

type submitRequest struct {
	Transaction types.Transaction `json:"transaction"`
}

type submitResponse struct {
	TxId types.TransactionId `json:"tx_id"`
}

func (c *Client) SubmitTransaction(ctx context.Context, tx types.Transaction) (types.TransactionId, error) {
	var resp submitResponse
	status, err := c.postJSON(ctx, "/submit", submitRequest{Transaction: tx}, &resp)
	if err != nil {
		return types.TransactionId{}, err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return types.TransactionId{}, fmt.Errorf("httpapi: submit returned %d", status)
	}
	return resp.TxId, nil
}

type outputStatusRequest struct {
	Module   string         `json:"module"`
	OutPoint types.OutPoint `json:"out_point"`
}

func (c *Client) OutputStatus(ctx context.Context, module string, out types.OutPoint) (types.Outcome, error) {
	var outcome types.Outcome
	status, err := c.postJSON(ctx, "/output_status", outputStatusRequest{Module: module, OutPoint: out}, &outcome)
	if err != nil {
		return types.Outcome{}, err
	}
	if status == http.StatusNotFound {
		return types.Unknown(), nil
	}
	if status != http.StatusOK {
		return types.Outcome{}, fmt.Errorf("httpapi: output_status returned %d", status)
	}
	return outcome, nil
}

type issuanceSignatureRequest struct {
	OutPoint types.OutPoint `json:"out_point"`
}

type issuanceSignatureResponse struct {
	SignatureHex string `json:"signature_hex"`
}

func (c *Client) IssuanceSignature(ctx context.Context, out types.OutPoint) ([]byte, error) {
	var resp issuanceSignatureResponse
	status, err := c.postJSON(ctx, "/issuance_signature", issuanceSignatureRequest{OutPoint: out}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpapi: issuance_signature returned %d", status)
	}
	return hex.DecodeString(resp.SignatureHex)
}
