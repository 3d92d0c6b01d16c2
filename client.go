// Package chronovault is the client SDK for the ChronoVault time-locked,
// access-controlled file vault. It orchestrates three external systems
// (the threshold-encryption key services, the decentralized blob storage
// network, and the ledger contract) into two end-to-end protocols: vault
// creation and vault file access.
package chronovault

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chronovault/chronovault-go/internal/ledger"
	"github.com/chronovault/chronovault-go/internal/seal"
	"github.com/chronovault/chronovault-go/internal/suins"
	"github.com/chronovault/chronovault-go/internal/walrus"
)

// --------------------------------------------------------------------
// Collaborator abstractions
//
// The orchestrators depend on these rather than on the concrete network
// clients so tests can substitute doubles (the clients themselves are
// stateless wrappers and are shared by reference).
// --------------------------------------------------------------------

type encryptionService interface {
	Encrypt(ctx context.Context, id, data []byte, threshold int) (ciphertext, keyID []byte, err error)
	LoadCiphertext(ciphertext []byte) ([]byte, error)
	FetchKeys(ctx context.Context, ids [][]byte, txBytes []byte, sk *seal.SessionKey, threshold int) error
	Decrypt(ctx context.Context, ciphertext []byte, sk *seal.SessionKey, txBytes []byte) ([]byte, error)
}

type writeFlow interface {
	Encode() error
	Register(owner string, epochs uint64, deletable bool) (*ledger.Transaction, error)
	Upload(ctx context.Context, digest string) error
	Certify() (*ledger.Transaction, error)
	ListFiles() ([]walrus.StoredFile, error)
	BundleID() string
}

type bundleHandle interface {
	Files(identifiers []string) ([]*walrus.BlobFile, error)
}

type blobStore interface {
	WriteFilesFlow(files []walrus.File) writeFlow
	GetBlob(ctx context.Context, blobID string) (bundleHandle, error)
}

type ledgerService interface {
	ExecuteTransaction(ctx context.Context, txBytes, signature []byte) (*ledger.ExecuteResult, error)
	GetObject(ctx context.Context, id string) (*ledger.ObjectData, error)
	GetOwnedObjects(ctx context.Context, owner, structType string) ([]ledger.ObjectData, error)
}

type nameResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// walrusStore adapts *walrus.Client to the blobStore interface.
type walrusStore struct{ c *walrus.Client }

func (w walrusStore) WriteFilesFlow(files []walrus.File) writeFlow { return w.c.WriteFilesFlow(files) }
func (w walrusStore) GetBlob(ctx context.Context, blobID string) (bundleHandle, error) {
	return w.c.GetBlob(ctx, blobID)
}

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client is the entry point of the SDK. Construct it with New; the zero
// value is not usable. A Client may be shared across goroutines, but two
// concurrent vault creations are independent and uncoordinated.
type Client struct {
	cfg    Config
	http   *http.Client
	signer ledger.Signer

	ledger   ledgerService
	seal     encryptionService
	storage  blobStore
	resolver nameResolver

	log zerolog.Logger
	now func() time.Time
}

// New constructs a Client for the given configuration. The signer is the
// connected wallet identity; it may be nil, in which case every operation
// that needs a signature fails with ErrWalletNotConnected.
func New(cfg Config, signer ledger.Signer, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:    cfg,
		signer: signer,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    zerolog.Nop(),
		now:    time.Now,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	ledgerClient := ledger.New(cfg.RPCURL, c.http)
	if c.ledger == nil {
		c.ledger = ledgerClient
	}
	if c.seal == nil {
		sc := seal.New(cfg.PackageID, cfg.KeyServers, c.http)
		sc.SetClock(c.now)
		c.seal = sc
	}
	if c.storage == nil {
		c.storage = walrusStore{c: walrus.New(walrus.Config{
			PublisherURL:    cfg.PublisherURL,
			AggregatorURL:   cfg.AggregatorURL,
			SystemPackageID: cfg.StoragePackageID,
			SystemObjectID:  cfg.StorageObjectID,
		}, c.http)}
	}
	if c.resolver == nil {
		c.resolver = suins.New(ledgerClient, cfg.NameRegistryID)
	}
	return c, nil
}

// Connected reports whether a signing identity is configured.
func (c *Client) Connected() bool { return c.signer != nil }

// Address returns the connected identity's address, or "" when no wallet is
// connected.
func (c *Client) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address()
}

// signAndExecute builds, signs and submits one transaction with the
// connected identity.
func (c *Client) signAndExecute(ctx context.Context, tx *ledger.Transaction) (*ledger.ExecuteResult, error) {
	tx.SetSender(c.signer.Address())
	txBytes, err := tx.Build()
	if err != nil {
		return nil, err
	}
	sig, err := c.signer.SignTransaction(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	return c.ledger.ExecuteTransaction(ctx, txBytes, sig)
}
