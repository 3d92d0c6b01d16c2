// Package seal wraps the threshold identity-based encryption service. A
// payload is encrypted under a policy id bound to the target contract
// package; decryption requires a quorum of independent key services, each of
// which replays an approval transaction against live ledger state before
// releasing its share. Authorization is enforced by the contract and
// re-checked on every request, never cached in the ciphertext.
package seal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	bare "git.sr.ht/~sircmpwn/go-bare"
	"github.com/corvus-ch/shamir"
	eciesgo "github.com/ecies/go/v2"

	ierrors "github.com/chronovault/chronovault-go/internal/errors"
	"github.com/chronovault/chronovault-go/internal/types"
)

const envelopeVersion = 1

// wireShare is one key service's wrapped share of the data-encryption key.
type wireShare struct {
	Index     uint8 // x-coordinate of the share
	ServiceID string
	Wrapped   []byte
}

// envelope is the self-describing ciphertext format.
type envelope struct {
	Version   uint8
	PackageID string
	ID        []byte
	Threshold uint8
	Shares    []wireShare
	Payload   []byte
}

type serviceInfo struct {
	ServiceID string `json:"serviceId"`
	PublicKey string `json:"publicKey"`
}

// Client talks to the configured key services. It is safe to share across
// calls; fetched key shares are cached per key id until the client is
// discarded.
type Client struct {
	packageID string
	servers   []string
	http      *http.Client
	now       func() time.Time

	mu        sync.Mutex
	services  map[string]serviceInfo // server URL -> info
	pubkeys   map[string]*eciesgo.PublicKey
	envelopes map[string]envelope        // hex key id -> parsed ciphertext envelope
	shares    map[string]map[byte][]byte // hex key id -> x -> unwrapped share
}

// New constructs a client for the given key-service endpoints, scoped to one
// contract package.
func New(packageID string, servers []string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		packageID: packageID,
		servers:   servers,
		http:      httpClient,
		now:       time.Now,
		services:  make(map[string]serviceInfo),
		pubkeys:   make(map[string]*eciesgo.PublicKey),
		envelopes: make(map[string]envelope),
		shares:    make(map[string]map[byte][]byte),
	}
}

// SetClock replaces the time source used to judge session credential expiry.
// Session credentials are minted against the caller's clock; both sides must
// agree on what "now" means.
func (c *Client) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// serverInfo fetches and caches a key service's id and wrapping public key.
func (c *Client) serverInfo(ctx context.Context, url string) (serviceInfo, *eciesgo.PublicKey, error) {
	c.mu.Lock()
	if info, ok := c.services[url]; ok {
		pk := c.pubkeys[url]
		c.mu.Unlock()
		return info, pk, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/service", nil)
	if err != nil {
		return serviceInfo{}, nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return serviceInfo{}, nil, ierrors.FromNetwork("seal service info", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return serviceInfo{}, nil, ierrors.FromStatus("seal service info", resp.StatusCode)
	}
	var info serviceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return serviceInfo{}, nil, err
	}
	pk, err := eciesgo.NewPublicKeyFromHex(info.PublicKey)
	if err != nil {
		return serviceInfo{}, nil, fmt.Errorf("key service %s public key: %w", url, err)
	}

	c.mu.Lock()
	c.services[url] = info
	c.pubkeys[url] = pk
	c.mu.Unlock()
	return info, pk, nil
}

// Encrypt encrypts data under the policy id with the given approval
// threshold. The threshold is honored exactly; it is never silently
// reduced. No ledger interaction happens here.
func (c *Client) Encrypt(ctx context.Context, id, data []byte, threshold int) (ciphertext, keyID []byte, err error) {
	n := len(c.servers)
	if threshold < 1 {
		return nil, nil, fmt.Errorf("%w: threshold must be at least 1", types.ErrEncryptionFailed)
	}
	if threshold > n {
		return nil, nil, fmt.Errorf("%w: threshold %d exceeds %d configured key services",
			types.ErrEncryptionFailed, threshold, n)
	}

	dek, err := randomDEK()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
	}
	parts, err := splitDEK(dek, n, threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
	}

	env := envelope{
		Version:   envelopeVersion,
		PackageID: c.packageID,
		ID:        id,
		Threshold: uint8(threshold),
		Shares:    make([]wireShare, 0, n),
	}
	for i, url := range c.servers {
		info, pk, err := c.serverInfo(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
		}
		wrapped, err := eciesgo.Encrypt(pk, parts[i].share)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: wrapping share for %s: %v", types.ErrEncryptionFailed, url, err)
		}
		env.Shares = append(env.Shares, wireShare{Index: parts[i].x, ServiceID: info.ServiceID, Wrapped: wrapped})
	}

	key, err := dataKey(dek, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
	}
	env.Payload, err = sealPayload(key, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
	}
	ct, err := bare.Marshal(&env)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrEncryptionFailed, err)
	}
	c.mu.Lock()
	c.envelopes[hex.EncodeToString(id)] = env
	c.mu.Unlock()
	return ct, id, nil
}

// LoadCiphertext parses a ciphertext envelope and registers it with the
// client so FetchKeys can route each service its own wrapped share. Returns
// the envelope's key id.
func (c *Client) LoadCiphertext(ciphertext []byte) ([]byte, error) {
	var env envelope
	if err := bare.Unmarshal(ciphertext, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext: %v", types.ErrDecryptionFailed, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", types.ErrDecryptionFailed, env.Version)
	}
	c.mu.Lock()
	c.envelopes[hex.EncodeToString(env.ID)] = env
	c.mu.Unlock()
	return env.ID, nil
}

type indexedShare struct {
	x     byte
	share []byte
}

func splitDEK(dek []byte, n, threshold int) ([]indexedShare, error) {
	// A threshold of one degenerates to handing every service the key.
	if threshold == 1 {
		out := make([]indexedShare, n)
		for i := range out {
			out[i] = indexedShare{x: byte(i + 1), share: dek}
		}
		return out, nil
	}
	m, err := shamir.Split(dek, n, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]indexedShare, 0, n)
	for x, s := range m {
		out = append(out, indexedShare{x: x, share: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out, nil
}

// fetchKeyRequest is what each key service receives. The service replays
// TxBytes against current ledger state, and only if the on-chain policy
// predicate accepts does it unwrap the enclosed shares (wrapped to its own
// public key) and re-wrap them to the session public key.
type fetchKeyRequest struct {
	IDs         []string        `json:"ids"` // hex key ids
	Shares      []fetchKeyShare `json:"shares"`
	TxBytes     string          `json:"txBytes"`
	Certificate certificate     `json:"certificate"`
}

// fetchKeyShare is the requester-supplied share wrapped to this service.
type fetchKeyShare struct {
	ID      string `json:"id"`
	Index   uint8  `json:"index"`
	Wrapped string `json:"wrappedShare"` // base64, ECIES to the service key
}

type fetchKeyResponse struct {
	Keys []struct {
		ID      string `json:"id"`
		Index   uint8  `json:"index"`
		Wrapped string `json:"wrappedShare"` // base64, ECIES to the session public key
	} `json:"keys"`
}

// FetchKeys requests decryption shares for the given key ids, gated by the
// approval transaction. It fails with ErrAccessDenied when fewer than
// threshold services approve. This is the sole authorization checkpoint;
// contract policy is never second-guessed locally.
func (c *Client) FetchKeys(ctx context.Context, ids [][]byte, txBytes []byte, sk *SessionKey, threshold int) error {
	if sk == nil {
		return fmt.Errorf("%w: no session credential", types.ErrAccessDenied)
	}
	if err := sk.Valid(c.now()); err != nil {
		return fmt.Errorf("%w: %v", types.ErrAccessDenied, err)
	}
	hexIDs := make([]string, len(ids))
	envs := make([]envelope, len(ids))
	for i, id := range ids {
		hexIDs[i] = hex.EncodeToString(id)
		c.mu.Lock()
		env, ok := c.envelopes[hexIDs[i]]
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("no ciphertext loaded for key id %s", hexIDs[i])
		}
		envs[i] = env
	}

	approvals := 0
	var lastErr error
	for _, url := range c.servers {
		info, _, err := c.serverInfo(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		req := fetchKeyRequest{
			IDs:         hexIDs,
			TxBytes:     base64.StdEncoding.EncodeToString(txBytes),
			Certificate: sk.certificate(),
		}
		for i, env := range envs {
			for _, s := range env.Shares {
				if s.ServiceID == info.ServiceID {
					req.Shares = append(req.Shares, fetchKeyShare{
						ID:      hexIDs[i],
						Index:   s.Index,
						Wrapped: base64.StdEncoding.EncodeToString(s.Wrapped),
					})
				}
			}
		}
		if err := c.fetchFromServer(ctx, url, req, hexIDs, sk); err != nil {
			lastErr = err
			continue
		}
		approvals++
	}
	if approvals < threshold {
		if lastErr != nil {
			return fmt.Errorf("%w: %d of %d required approvals (last: %v)",
				types.ErrAccessDenied, approvals, threshold, lastErr)
		}
		return fmt.Errorf("%w: %d of %d required approvals", types.ErrAccessDenied, approvals, threshold)
	}
	return nil
}

func (c *Client) fetchFromServer(ctx context.Context, url string, fkr fetchKeyRequest, wantIDs []string, sk *SessionKey) error {
	body, err := json.Marshal(fkr)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/v1/fetch_key", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return ierrors.FromNetwork("seal fetch_key", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return ierrors.FromStatus("seal fetch_key", resp.StatusCode)
	}
	var fr fetchKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return err
	}

	got := make(map[string]bool, len(fr.Keys))
	for _, k := range fr.Keys {
		wrapped, err := base64.StdEncoding.DecodeString(k.Wrapped)
		if err != nil {
			return fmt.Errorf("key service %s: malformed share: %w", url, err)
		}
		share, err := eciesgo.Decrypt(sk.priv, wrapped)
		if err != nil {
			return fmt.Errorf("key service %s: unwrapping share: %w", url, err)
		}
		c.mu.Lock()
		if c.shares[k.ID] == nil {
			c.shares[k.ID] = make(map[byte][]byte)
		}
		c.shares[k.ID][k.Index] = share
		c.mu.Unlock()
		got[k.ID] = true
	}
	for _, id := range wantIDs {
		if !got[id] {
			return fmt.Errorf("key service %s withheld share for %s", url, id)
		}
	}
	return nil
}

// Decrypt recovers the plaintext from a ciphertext produced by Encrypt.
// FetchKeys must have succeeded for the ciphertext's key id first; quorum
// shares are combined locally.
func (c *Client) Decrypt(ctx context.Context, ciphertext []byte, sk *SessionKey, txBytes []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var env envelope
	if err := bare.Unmarshal(ciphertext, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext: %v", types.ErrDecryptionFailed, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", types.ErrDecryptionFailed, env.Version)
	}

	idHex := hex.EncodeToString(env.ID)
	c.mu.Lock()
	cached := c.shares[idHex]
	parts := make(map[byte][]byte, len(cached))
	for x, s := range cached {
		parts[x] = s
	}
	c.mu.Unlock()

	if len(parts) < int(env.Threshold) {
		return nil, fmt.Errorf("%w: %d of %d key shares available",
			types.ErrDecryptionFailed, len(parts), env.Threshold)
	}

	dek, err := combineDEK(parts, int(env.Threshold))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecryptionFailed, err)
	}
	key, err := dataKey(dek, env.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecryptionFailed, err)
	}
	plain, err := openPayload(key, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecryptionFailed, err)
	}
	return plain, nil
}

func combineDEK(parts map[byte][]byte, threshold int) ([]byte, error) {
	if threshold == 1 {
		for _, s := range parts {
			return s, nil
		}
		return nil, fmt.Errorf("no shares")
	}
	return shamir.Combine(parts)
}
