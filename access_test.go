package chronovault

import (
	"context"
	"fmt"
	"testing"

	"github.com/chronovault/chronovault-go/internal/ledger"
)

func vaultObject(id string, sealIDs ...string) *ledger.ObjectData {
	files := make([]any, len(sealIDs))
	for i, sid := range sealIDs {
		files[i] = map[string]any{"fields": map[string]any{
			"file_identifier": fmt.Sprintf("file-%d", i),
			"seal_id":         sid,
			"blob_id":         fmt.Sprintf("blob-%d", i),
		}}
	}
	return &ledger.ObjectData{
		ObjectID: id,
		DataType: "moveObject",
		Fields: map[string]any{
			"vault_name": "estate",
			"files":      files,
		},
	}
}

func decryptRequest() DecryptFileRequest {
	return DecryptFileRequest{
		VaultID:        "0xvault",
		BundleID:       "bundle-1",
		FileIdentifier: "file-0",
		SealID:         "sid-0",
	}
}

func TestDecryptVaultFileRoundTrip(t *testing.T) {
	sl := &stubSeal{decryptOut: []byte("the will, in full"), loadID: "sid-0"}
	st := &stubStore{
		flow: &stubFlow{},
		blob: stubBundle{members: map[string][]byte{"file-0": []byte("ciphertext")}},
	}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	plain, err := c.DecryptVaultFile(context.Background(), decryptRequest())
	if err != nil {
		t.Fatalf("DecryptVaultFile: %v", err)
	}
	if string(plain) != "the will, in full" {
		t.Fatalf("plaintext: %q", plain)
	}
	if sl.fetchCalls != 1 || len(sl.fetchIDs) != 1 || string(sl.fetchIDs[0]) != "sid-0" {
		t.Fatalf("fetch keys: calls=%d ids=%q", sl.fetchCalls, sl.fetchIDs)
	}
	if len(sl.loaded) != 1 || string(sl.loaded[0]) != "ciphertext" {
		t.Fatalf("loaded ciphertexts: %q", sl.loaded)
	}
	if ld.execCalls != 0 {
		t.Fatalf("read path submitted %d transactions", ld.execCalls)
	}
}

func TestDecryptVaultFileUnknownSealID(t *testing.T) {
	sl := &stubSeal{}
	st := &stubStore{flow: &stubFlow{}}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	req := decryptRequest()
	req.SealID = "sid-other"
	_, err := c.DecryptVaultFile(context.Background(), req)
	if !IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
	// The mistake is caught before any storage or key-service traffic.
	if st.getBlobCalls != 0 || sl.fetchCalls != 0 {
		t.Fatalf("external systems contacted: blob=%d fetch=%d", st.getBlobCalls, sl.fetchCalls)
	}
}

func TestDecryptVaultFileAccessDenied(t *testing.T) {
	sl := &stubSeal{fetchErr: fmt.Errorf("%w: 1 of 2 required approvals", ErrAccessDenied), loadID: "sid-0"}
	st := &stubStore{
		flow: &stubFlow{},
		blob: stubBundle{members: map[string][]byte{"file-0": []byte("ciphertext")}},
	}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	_, err := c.DecryptVaultFile(context.Background(), decryptRequest())
	if !IsAccessDenied(err) {
		t.Fatalf("got %v, want access denied", err)
	}
	if sl.decryptCalls != 0 {
		t.Fatalf("decrypt attempted after quorum rejection")
	}
}

func TestDecryptVaultFileUsesRecordedBlobID(t *testing.T) {
	sl := &stubSeal{decryptOut: []byte("plain"), loadID: "sid-0"}
	st := &stubStore{
		flow: &stubFlow{},
		blob: stubBundle{members: map[string][]byte{"file-0": []byte("ciphertext")}},
	}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	// No bundle id in the request: the vault record's blob id for the key
	// id must be enough to locate the ciphertext.
	req := decryptRequest()
	req.BundleID = ""
	if _, err := c.DecryptVaultFile(context.Background(), req); err != nil {
		t.Fatalf("DecryptVaultFile: %v", err)
	}
	if st.gotBlobID != "blob-0" {
		t.Fatalf("bundle fetched from %q, want the vault record's blob-0", st.gotBlobID)
	}
}

func TestDecryptVaultFileCiphertextKeyIDMismatch(t *testing.T) {
	sl := &stubSeal{loadID: "sid-other"}
	st := &stubStore{
		flow: &stubFlow{},
		blob: stubBundle{members: map[string][]byte{"file-0": []byte("ciphertext")}},
	}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	_, err := c.DecryptVaultFile(context.Background(), decryptRequest())
	if !IsDecryptionFailed(err) {
		t.Fatalf("got %v, want decryption failure", err)
	}
	// The mismatch is detected locally; no session is minted and no key
	// service is asked to approve the wrong ciphertext.
	if sl.fetchCalls != 0 {
		t.Fatalf("key services contacted despite key id mismatch")
	}
}

func TestDecryptVaultFileMissingBundleMember(t *testing.T) {
	sl := &stubSeal{}
	st := &stubStore{
		flow: &stubFlow{},
		blob: stubBundle{members: map[string][]byte{}},
	}
	ld := &stubLedger{objects: map[string]*ledger.ObjectData{
		"0xvault": vaultObject("0xvault", "sid-0"),
	}}
	c := newTestClient(sl, st, ld, &stubResolver{})

	_, err := c.DecryptVaultFile(context.Background(), decryptRequest())
	if !IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
	if sl.fetchCalls != 0 {
		t.Fatalf("key services contacted without ciphertext")
	}
}

func TestDecryptVaultFileRequiresWallet(t *testing.T) {
	c := newTestClient(&stubSeal{}, &stubStore{flow: &stubFlow{}}, &stubLedger{}, &stubResolver{})
	c.signer = nil
	if _, err := c.DecryptVaultFile(context.Background(), decryptRequest()); err != ErrWalletNotConnected {
		t.Fatalf("got %v, want ErrWalletNotConnected", err)
	}
}
