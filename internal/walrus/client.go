// Package walrus persists encrypted blobs into the decentralized storage
// network. Writes go through a strict four-phase protocol (encode, register,
// upload, certify); readers only ever see certified bundles.
package walrus

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	bare "git.sr.ht/~sircmpwn/go-bare"
	"lukechampine.com/blake3"

	ierrors "github.com/chronovault/chronovault-go/internal/errors"
	"github.com/chronovault/chronovault-go/internal/types"
)

// File is one member of a bundle to be written.
type File struct {
	Identifier string
	Tags       map[string]string
	Contents   []byte
}

// StoredFile is one bundle member after certification.
type StoredFile struct {
	Identifier string
	BlobID     string
}

// Config locates the storage network endpoints and the on-chain storage
// system objects used by register/certify transactions.
type Config struct {
	PublisherURL    string
	AggregatorURL   string
	SystemPackageID string
	SystemObjectID  string
}

// Client is a stateless wrapper over the storage network endpoints; it may
// be shared across calls.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a storage client.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// ------------------------------
// Bundle encoding
// ------------------------------

type wireBundleFile struct {
	Identifier string
	Tags       map[string]string
	Contents   []byte
}

type wireBundle struct {
	Version uint8
	Files   []wireBundleFile
}

func encodeBundle(files []File) ([]byte, error) {
	wb := wireBundle{Version: 1, Files: make([]wireBundleFile, len(files))}
	for i, f := range files {
		tags := f.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		wb.Files[i] = wireBundleFile{Identifier: f.Identifier, Tags: tags, Contents: f.Contents}
	}
	return bare.Marshal(&wb)
}

// bundleDigest is the content digest of an encoded bundle.
func bundleDigest(bundle []byte) [32]byte { return blake3.Sum256(bundle) }

// bundleID renders a bundle digest as the content identifier used on the
// wire and on-chain.
func bundleID(digest [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// patchID derives the per-member content identifier within a bundle: the
// bundle digest with a two-byte member index appended. Holding a member id
// is enough to fetch the bundle that contains it.
func patchID(digest [32]byte, index int) string {
	buf := make([]byte, 0, len(digest)+2)
	buf = append(buf, digest[:]...)
	buf = append(buf, byte(index>>8), byte(index))
	return base64.RawURLEncoding.EncodeToString(buf)
}

// resolveBundleID maps a bundle or member content id to the id of the
// bundle holding the bytes.
func resolveBundleID(id string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("blob id %q: %w", id, err)
	}
	switch len(raw) {
	case 32:
		return id, nil
	case 34:
		return base64.RawURLEncoding.EncodeToString(raw[:32]), nil
	default:
		return "", fmt.Errorf("blob id %q: unexpected length %d", id, len(raw))
	}
}

// ------------------------------
// Read path
// ------------------------------

// Blob is a handle over one certified, fetched bundle.
type Blob struct {
	ID    string
	files []BlobFile
}

// BlobFile is one member of a fetched bundle.
type BlobFile struct {
	Identifier string
	Tags       map[string]string
	contents   []byte
}

// NewBlobFile constructs a bundle member from already-fetched bytes.
func NewBlobFile(identifier string, tags map[string]string, contents []byte) BlobFile {
	return BlobFile{Identifier: identifier, Tags: tags, contents: contents}
}

// Bytes returns the member's raw (still encrypted) bytes.
func (f *BlobFile) Bytes() []byte { return f.contents }

// Files returns the members matching the given identifiers, in request
// order. An absent identifier fails with ErrNotFound.
func (b *Blob) Files(identifiers []string) ([]*BlobFile, error) {
	if len(identifiers) == 0 {
		out := make([]*BlobFile, len(b.files))
		for i := range b.files {
			out[i] = &b.files[i]
		}
		return out, nil
	}
	out := make([]*BlobFile, 0, len(identifiers))
	for _, want := range identifiers {
		found := false
		for i := range b.files {
			if b.files[i].Identifier == want {
				out = append(out, &b.files[i])
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q in bundle %s", types.ErrNotFound, want, b.ID)
		}
	}
	return out, nil
}

// GetBlob fetches a certified bundle by content identifier. Both bundle ids
// and per-member ids are accepted; a member id resolves to its containing
// bundle.
func (c *Client) GetBlob(ctx context.Context, blobID string) (*Blob, error) {
	blobID, err := resolveBundleID(blobID)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/blobs/%s", c.cfg.AggregatorURL, blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ierrors.FromNetwork("walrus read", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: bundle %s", types.ErrNotFound, blobID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ierrors.FromStatus("walrus read", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierrors.FromNetwork("walrus read", err)
	}
	var wb wireBundle
	if err := bare.Unmarshal(raw, &wb); err != nil {
		return nil, fmt.Errorf("bundle %s: malformed: %w", blobID, err)
	}
	blob := &Blob{ID: blobID, files: make([]BlobFile, len(wb.Files))}
	for i, f := range wb.Files {
		blob.files[i] = BlobFile{Identifier: f.Identifier, Tags: f.Tags, contents: f.Contents}
	}
	return blob, nil
}
