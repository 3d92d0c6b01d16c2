package walrus

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	backoff "github.com/cenkalti/backoff/v4"

	ierrors "github.com/chronovault/chronovault-go/internal/errors"
	"github.com/chronovault/chronovault-go/internal/ledger"
	"github.com/chronovault/chronovault-go/internal/types"
)

// Write phases. All four must complete in order; no phase may be skipped or
// reordered. Calling a phase out of order is a programming error and fails
// immediately.
type phase int

const (
	phaseInit phase = iota
	phaseEncoded
	phaseRegisterBuilt
	phaseUploaded
	phaseCertifyBuilt
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseEncoded:
		return "encoded"
	case phaseRegisterBuilt:
		return "registered"
	case phaseUploaded:
		return "uploaded"
	case phaseCertifyBuilt:
		return "certified"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// uploadMaxRetries bounds transient retries within the upload phase. The
// register transaction is never re-submitted from here.
const uploadMaxRetries = 4

// WriteFlow drives one bundle write through encode, register, upload and
// certify. Register and certify produce ledger transactions the caller must
// sign and execute; the flow itself never touches the caller's signer.
type WriteFlow struct {
	client *Client
	files  []File

	phase  phase
	bundle []byte
	sum    [32]byte
	id     string
	epochs uint64
}

// WriteFilesFlow starts a write of all given files as one logical bundle.
func (c *Client) WriteFilesFlow(files []File) *WriteFlow {
	return &WriteFlow{client: c, files: files}
}

func (f *WriteFlow) require(want phase, op string) error {
	if f.phase != want {
		return fmt.Errorf("walrus %s: flow is %s, want %s", op, f.phase, want)
	}
	return nil
}

// Encode computes the bundle's storage encoding locally. Failure here is
// fatal and happens before any network or ledger interaction.
func (f *WriteFlow) Encode() error {
	if err := f.require(phaseInit, "encode"); err != nil {
		return err
	}
	if len(f.files) == 0 {
		return fmt.Errorf("walrus encode: no files")
	}
	bundle, err := encodeBundle(f.files)
	if err != nil {
		return fmt.Errorf("walrus encode: %w", err)
	}
	f.bundle = bundle
	f.sum = bundleDigest(bundle)
	f.id = bundleID(f.sum)
	f.phase = phaseEncoded
	return nil
}

// Register builds the ledger transaction declaring intent to store the
// bundle. The caller signs and executes it, then passes the resulting
// digest to Upload. A failed register leaves nothing uploaded; a fresh
// register may be attempted safely.
func (f *WriteFlow) Register(owner string, epochs uint64, deletable bool) (*ledger.Transaction, error) {
	if err := f.require(phaseEncoded, "register"); err != nil {
		return nil, err
	}
	f.epochs = epochs
	tx := ledger.NewTransaction().MoveCall(
		f.client.cfg.SystemPackageID+"::blob::register",
		ledger.Object(f.client.cfg.SystemObjectID),
		ledger.PureString(f.id),
		ledger.PureU64(uint64(len(f.bundle))),
		ledger.PureU64(epochs),
		ledger.PureBool(deletable),
	)
	f.phase = phaseRegisterBuilt
	return tx, nil
}

// BundleID returns the bundle's content identifier; valid after Encode.
func (f *WriteFlow) BundleID() string { return f.id }

// Upload pushes the encoded bundle to storage nodes, referencing the
// register transaction's digest as proof of reservation. Transient failures
// are retried with backoff within this phase only; the flow never
// re-registers.
func (f *WriteFlow) Upload(ctx context.Context, digest string) error {
	if err := f.require(phaseRegisterBuilt, "upload"); err != nil {
		return err
	}
	if digest == "" {
		return fmt.Errorf("walrus upload: register digest is required")
	}

	url := fmt.Sprintf("%s/v1/blobs/%s?registered=%s&epochs=%d",
		f.client.cfg.PublisherURL, f.id, digest, f.epochs)
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(f.bundle))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		resp, err := f.client.http.Do(req)
		if err != nil {
			return ierrors.FromNetwork("walrus upload", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			te := ierrors.FromStatus("walrus upload", resp.StatusCode)
			if !ierrors.IsTransient(te) {
				return backoff.Permanent(te)
			}
			return te
		}
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uploadMaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageUploadFailed, err)
	}
	f.phase = phaseUploaded
	return nil
}

// Certify builds the ledger transaction attesting that upload completed.
// Only after the caller executes it does the bundle become durably
// retrievable.
func (f *WriteFlow) Certify() (*ledger.Transaction, error) {
	if err := f.require(phaseUploaded, "certify"); err != nil {
		return nil, err
	}
	tx := ledger.NewTransaction().MoveCall(
		f.client.cfg.SystemPackageID+"::blob::certify",
		ledger.Object(f.client.cfg.SystemObjectID),
		ledger.PureString(f.id),
	)
	f.phase = phaseCertifyBuilt
	return tx, nil
}

// ListFiles enumerates the bundle's members and their content identifiers,
// order-preserving with the input files. Valid only after Certify.
func (f *WriteFlow) ListFiles() ([]StoredFile, error) {
	if err := f.require(phaseCertifyBuilt, "list"); err != nil {
		return nil, err
	}
	out := make([]StoredFile, len(f.files))
	for i, file := range f.files {
		out[i] = StoredFile{Identifier: file.Identifier, BlobID: patchID(f.sum, i)}
	}
	return out, nil
}
