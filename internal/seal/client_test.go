package seal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eciesgo "github.com/ecies/go/v2"

	"github.com/chronovault/chronovault-go/internal/types"
)

// startKeyServer runs a fake key service. It unwraps requester-supplied
// shares with its own key and re-wraps them to the session public key, or
// denies everything when deny is set.
func startKeyServer(t *testing.T, id string, deny bool) *httptest.Server {
	t.Helper()
	priv, err := eciesgo.GenerateKey()
	if err != nil {
		t.Fatalf("generate service key: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/service":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"serviceId": id,
				"publicKey": priv.PublicKey.Hex(true),
			})
		case "/v1/fetch_key":
			if deny {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			var req fetchKeyRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode fetch_key: %v", err)
			}
			if req.TxBytes == "" || len(req.Certificate.Signature) == 0 {
				t.Fatalf("fetch_key missing approval material: %+v", req)
			}
			sessionPub, err := eciesgo.NewPublicKeyFromHex(req.Certificate.SessionPublicKey)
			if err != nil {
				t.Fatalf("session public key: %v", err)
			}
			keys := make([]map[string]any, 0, len(req.Shares))
			for _, s := range req.Shares {
				wrapped, err := base64.StdEncoding.DecodeString(s.Wrapped)
				if err != nil {
					t.Fatalf("share b64: %v", err)
				}
				share, err := eciesgo.Decrypt(priv, wrapped)
				if err != nil {
					t.Fatalf("unwrap share: %v", err)
				}
				rewrapped, err := eciesgo.Encrypt(sessionPub, share)
				if err != nil {
					t.Fatalf("rewrap share: %v", err)
				}
				keys = append(keys, map[string]any{
					"id":           s.ID,
					"index":        s.Index,
					"wrappedShare": base64.StdEncoding.EncodeToString(rewrapped),
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signedSession(t *testing.T) *SessionKey {
	t.Helper()
	sk, err := NewSessionKey("0xidentity", "0xpkg", 30*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("NewSessionKey: %v", err)
	}
	if err := sk.SetPersonalMessageSignature([]byte("sig")); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	return sk
}

func TestEncryptFetchDecryptRoundTrip(t *testing.T) {
	urls := []string{
		startKeyServer(t, "svc-1", false).URL,
		startKeyServer(t, "svc-2", false).URL,
		startKeyServer(t, "svc-3", false).URL,
	}
	ctx := context.Background()
	plaintext := []byte("the will, in full")
	policyID := []byte("estate:will.pdf:1750000000000")

	writer := New("0xpkg", urls, nil)
	ciphertext, keyID, err := writer.Encrypt(ctx, policyID, plaintext, 2)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// A fresh client proves the ciphertext is self-contained.
	reader := New("0xpkg", urls, nil)
	loadedID, err := reader.LoadCiphertext(ciphertext)
	if err != nil {
		t.Fatalf("LoadCiphertext: %v", err)
	}
	if string(loadedID) != string(keyID) {
		t.Fatalf("key id mismatch: %q vs %q", loadedID, keyID)
	}

	sk := signedSession(t)
	if err := reader.FetchKeys(ctx, [][]byte{keyID}, []byte("approval-tx"), sk, 2); err != nil {
		t.Fatalf("FetchKeys: %v", err)
	}
	plain, err := reader.Decrypt(ctx, ciphertext, sk, []byte("approval-tx"))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(plain) != string(plaintext) {
		t.Fatalf("round trip: got %q", plain)
	}
}

func TestFetchKeysToleratesMinorityOutage(t *testing.T) {
	urls := []string{
		startKeyServer(t, "svc-1", false).URL,
		startKeyServer(t, "svc-2", true).URL,
		startKeyServer(t, "svc-3", false).URL,
	}
	ctx := context.Background()
	c := New("0xpkg", urls, nil)
	ciphertext, keyID, err := c.Encrypt(ctx, []byte("id"), []byte("data"), 2)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	sk := signedSession(t)
	if err := c.FetchKeys(ctx, [][]byte{keyID}, []byte("tx"), sk, 2); err != nil {
		t.Fatalf("two approvals should satisfy threshold 2: %v", err)
	}
	if _, err := c.Decrypt(ctx, ciphertext, sk, []byte("tx")); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
}

func TestFetchKeysDeniedBelowThreshold(t *testing.T) {
	urls := []string{
		startKeyServer(t, "svc-1", false).URL,
		startKeyServer(t, "svc-2", true).URL,
		startKeyServer(t, "svc-3", true).URL,
	}
	ctx := context.Background()
	c := New("0xpkg", urls, nil)
	_, keyID, err := c.Encrypt(ctx, []byte("id"), []byte("data"), 2)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	err = c.FetchKeys(ctx, [][]byte{keyID}, []byte("tx"), signedSession(t), 2)
	if !errors.Is(err, types.ErrAccessDenied) {
		t.Fatalf("got %v, want ErrAccessDenied", err)
	}
}

func TestFetchKeysExpiryFollowsClientClock(t *testing.T) {
	urls := []string{startKeyServer(t, "svc-1", false).URL}
	ctx := context.Background()
	c := New("0xpkg", urls, nil)
	_, keyID, err := c.Encrypt(ctx, []byte("id"), []byte("data"), 1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// The credential is minted from an injected clock two hours behind the
	// wall clock. Expiry must be judged against that same clock, not
	// time.Now, or every credential from a skewed caller is dead on arrival.
	minted := time.Now().Add(-2 * time.Hour)
	sk, err := NewSessionKey("0xidentity", "0xpkg", 30*time.Minute, minted)
	if err != nil {
		t.Fatalf("NewSessionKey: %v", err)
	}
	if err := sk.SetPersonalMessageSignature([]byte("sig")); err != nil {
		t.Fatalf("set signature: %v", err)
	}

	c.SetClock(func() time.Time { return minted })
	if err := c.FetchKeys(ctx, [][]byte{keyID}, []byte("tx"), sk, 1); err != nil {
		t.Fatalf("credential valid on the client clock was rejected: %v", err)
	}

	c.SetClock(time.Now)
	err = c.FetchKeys(ctx, [][]byte{keyID}, []byte("tx"), sk, 1)
	if !errors.Is(err, types.ErrAccessDenied) {
		t.Fatalf("expired on the wall clock: got %v", err)
	}
}

func TestFetchKeysRequiresSignedSession(t *testing.T) {
	c := New("0xpkg", []string{"http://unused"}, nil)
	sk, err := NewSessionKey("0xidentity", "0xpkg", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("NewSessionKey: %v", err)
	}
	err = c.FetchKeys(context.Background(), [][]byte{[]byte("id")}, []byte("tx"), sk, 1)
	if !errors.Is(err, types.ErrAccessDenied) {
		t.Fatalf("unsigned session: got %v", err)
	}
}

func TestDecryptWithoutSharesFails(t *testing.T) {
	urls := []string{startKeyServer(t, "svc-1", false).URL}
	ctx := context.Background()
	writer := New("0xpkg", urls, nil)
	ciphertext, _, err := writer.Encrypt(ctx, []byte("id"), []byte("data"), 1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	reader := New("0xpkg", urls, nil)
	_, err = reader.Decrypt(ctx, ciphertext, signedSession(t), []byte("tx"))
	if !errors.Is(err, types.ErrDecryptionFailed) {
		t.Fatalf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestEncryptThresholdBounds(t *testing.T) {
	c := New("0xpkg", []string{"http://a", "http://b"}, nil)
	ctx := context.Background()
	if _, _, err := c.Encrypt(ctx, []byte("id"), []byte("x"), 3); !errors.Is(err, types.ErrEncryptionFailed) {
		t.Fatalf("threshold above server count: got %v", err)
	}
	if _, _, err := c.Encrypt(ctx, []byte("id"), []byte("x"), 0); !errors.Is(err, types.ErrEncryptionFailed) {
		t.Fatalf("zero threshold: got %v", err)
	}
}

func TestLoadCiphertextRejectsGarbage(t *testing.T) {
	c := New("0xpkg", nil, nil)
	if _, err := c.LoadCiphertext([]byte("not an envelope")); !errors.Is(err, types.ErrDecryptionFailed) {
		t.Fatalf("got %v, want ErrDecryptionFailed", err)
	}
}
