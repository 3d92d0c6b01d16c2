package ledger

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Signer is a connected identity able to sign transactions and personal
// messages. Wallet integrations implement this; tests and tools can use
// LocalSigner.
type Signer interface {
	Address() string
	SignTransaction(ctx context.Context, txBytes []byte) ([]byte, error)
	SignPersonalMessage(ctx context.Context, message []byte) ([]byte, error)
}

// Domain separators keep transaction and personal-message signatures from
// being replayable against each other.
var (
	intentTransaction     = []byte{0x00, 0x00, 0x00}
	intentPersonalMessage = []byte{0x03, 0x00, 0x00}
)

// LocalSigner signs with an in-process ed25519 key.
type LocalSigner struct {
	priv ed25519.PrivateKey
	addr string
}

// NewLocalSigner derives a signer from a 32-byte seed.
func NewLocalSigner(seed []byte) (*LocalSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &LocalSigner{priv: priv, addr: addressFor(priv.Public().(ed25519.PublicKey))}, nil
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*LocalSigner, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return NewLocalSigner(seed)
}

// addressFor derives the canonical address: blake3 over a scheme flag and
// the public key.
func addressFor(pub ed25519.PublicKey) string {
	h := blake3.Sum256(append([]byte{0x00}, pub...))
	return "0x" + hex.EncodeToString(h[:])
}

func (s *LocalSigner) Address() string { return s.addr }

func (s *LocalSigner) SignTransaction(ctx context.Context, txBytes []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := blake3.Sum256(append(intentTransaction, txBytes...))
	return ed25519.Sign(s.priv, digest[:]), nil
}

func (s *LocalSigner) SignPersonalMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := blake3.Sum256(append(intentPersonalMessage, message...))
	return ed25519.Sign(s.priv, digest[:]), nil
}
