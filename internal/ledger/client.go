// Package ledger builds, signs and submits ledger transactions and reads
// raw object state over JSON-RPC.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"

	"github.com/chronovault/chronovault-go/internal/types"
)

// Client speaks the ledger's JSON-RPC endpoint. It is a stateless wrapper
// over the endpoint and safe to share across calls.
type Client struct {
	rpcURL string
	http   *http.Client
}

// New constructs a ledger client for the given RPC endpoint.
func New(rpcURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{rpcURL: rpcURL, http: httpClient}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s: %v", types.ErrSubmissionTimeout, method, err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", method, resp.StatusCode)
	}
	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: %w", method, rr.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ------------------------------
// Object reads
// ------------------------------

// ObjectData is the raw shape of one on-chain object, decoded loosely; the
// view-model builder interprets Fields defensively.
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Type     string         `json:"type"`
	Owner    string         `json:"owner,omitempty"`
	DataType string         `json:"dataType"`
	Fields   map[string]any `json:"fields"`
}

type objectEnvelope struct {
	Data *struct {
		ObjectID string          `json:"objectId"`
		Type     string          `json:"type"`
		Owner    json.RawMessage `json:"owner"`
		Content  *struct {
			DataType string         `json:"dataType"`
			Fields   map[string]any `json:"fields"`
		} `json:"content"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e objectEnvelope) toObjectData() (*ObjectData, error) {
	if e.Error != nil {
		return nil, fmt.Errorf("%w: object %s", types.ErrNotFound, e.Error.Code)
	}
	if e.Data == nil {
		return nil, fmt.Errorf("%w: empty object response", types.ErrNotFound)
	}
	od := &ObjectData{ObjectID: e.Data.ObjectID, Type: e.Data.Type, Owner: ownerString(e.Data.Owner)}
	if e.Data.Content != nil {
		od.DataType = e.Data.Content.DataType
		od.Fields = e.Data.Content.Fields
	}
	return od, nil
}

// ownerString flattens the ledger's owner union ({AddressOwner: "0x.."},
// {ObjectOwner: "0x.."} or "Immutable") into a plain string.
func ownerString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		for _, v := range m {
			return v
		}
	}
	return ""
}

var showOptions = map[string]bool{"showContent": true, "showType": true, "showOwner": true}

// GetObject fetches one object by id.
func (c *Client) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var env objectEnvelope
	if err := c.call(ctx, "sui_getObject", []any{id, showOptions}, &env); err != nil {
		return nil, err
	}
	return env.toObjectData()
}

// MultiGetObjects fetches several objects by id, preserving input order.
// Missing members are skipped.
func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]ObjectData, error) {
	var envs []objectEnvelope
	if err := c.call(ctx, "sui_multiGetObjects", []any{ids, showOptions}, &envs); err != nil {
		return nil, err
	}
	out := make([]ObjectData, 0, len(envs))
	for _, env := range envs {
		od, err := env.toObjectData()
		if err != nil {
			continue
		}
		out = append(out, *od)
	}
	return out, nil
}

// GetOwnedObjects lists objects owned by owner, optionally filtered by
// struct type.
func (c *Client) GetOwnedObjects(ctx context.Context, owner, structType string) ([]ObjectData, error) {
	query := map[string]any{"options": showOptions}
	if structType != "" {
		query["filter"] = map[string]any{"StructType": structType}
	}
	var page struct {
		Data []objectEnvelope `json:"data"`
	}
	if err := c.call(ctx, "suix_getOwnedObjects", []any{owner, query}, &page); err != nil {
		return nil, err
	}
	out := make([]ObjectData, 0, len(page.Data))
	for _, env := range page.Data {
		od, err := env.toObjectData()
		if err != nil {
			continue
		}
		out = append(out, *od)
	}
	return out, nil
}

// GetDynamicFieldObject looks up a dynamic field of parent by name.
func (c *Client) GetDynamicFieldObject(ctx context.Context, parentID, name string) (*ObjectData, error) {
	field := map[string]any{"type": "0x1::string::String", "value": name}
	var env objectEnvelope
	if err := c.call(ctx, "suix_getDynamicFieldObject", []any{parentID, field}, &env); err != nil {
		return nil, err
	}
	return env.toObjectData()
}

// ------------------------------
// Transaction submission
// ------------------------------

// Event is one emitted ledger event.
type Event struct {
	Type       string          `json:"type"`
	ParsedJSON json.RawMessage `json:"parsedJson"`
}

// ExecuteResult carries the digest, effects status and emitted events of an
// executed transaction.
type ExecuteResult struct {
	Digest string  `json:"digest"`
	Events []Event `json:"events"`
	Status string  `json:"-"`
}

type executeEnvelope struct {
	Digest  string  `json:"digest"`
	Events  []Event `json:"events"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
}

// TransactionDigest derives the canonical digest of transaction bytes, as
// the chain would report it.
func TransactionDigest(txBytes []byte) string {
	sum := blake3.Sum256(txBytes)
	return base58.Encode(sum[:])
}

// ExecuteTransaction submits signed transaction bytes for execution.
// An on-chain revert fails with ErrLedgerTransactionFailed carrying the
// chain-reported reason; a transport timeout fails with ErrSubmissionTimeout
// and is never retried here.
func (c *Client) ExecuteTransaction(ctx context.Context, txBytes, signature []byte) (*ExecuteResult, error) {
	params := []any{
		base64.StdEncoding.EncodeToString(txBytes),
		[]string{base64.StdEncoding.EncodeToString(signature)},
		map[string]bool{"showEffects": true, "showEvents": true},
	}
	var env executeEnvelope
	if err := c.call(ctx, "sui_executeTransactionBlock", params, &env); err != nil {
		return nil, err
	}
	if env.Effects.Status.Status != "" && env.Effects.Status.Status != "success" {
		reason := env.Effects.Status.Error
		if reason == "" {
			reason = "unknown revert"
		}
		return nil, fmt.Errorf("%w: %s", types.ErrLedgerTransactionFailed, reason)
	}
	if env.Digest == "" {
		env.Digest = TransactionDigest(txBytes)
	}
	return &ExecuteResult{Digest: env.Digest, Events: env.Events, Status: env.Effects.Status.Status}, nil
}
