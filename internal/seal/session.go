package seal

import (
	"fmt"
	"time"

	eciesgo "github.com/ecies/go/v2"
	"github.com/google/uuid"

	"github.com/chronovault/chronovault-go/internal/types"
)

// SessionKey is the ephemeral credential authorizing key-service requests
// for one identity and one contract package. It is minted fresh per
// decryption attempt, never persisted, and unusable until its personal
// message has been signed by the identity.
type SessionKey struct {
	address   string
	packageID string
	nonce     string
	createdAt time.Time
	ttl       time.Duration

	priv      *eciesgo.PrivateKey
	signature []byte
}

// NewSessionKey mints a credential for address scoped to packageID, valid
// for ttl from now.
func NewSessionKey(address, packageID string, ttl time.Duration, now time.Time) (*SessionKey, error) {
	if address == "" {
		return nil, fmt.Errorf("session key needs an address")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	priv, err := eciesgo.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("session key generation: %w", err)
	}
	return &SessionKey{
		address:   address,
		packageID: packageID,
		nonce:     uuid.NewString(),
		createdAt: now,
		ttl:       ttl,
		priv:      priv,
	}, nil
}

// PersonalMessage is the canonical challenge the identity must sign before
// the credential can be used to request keys.
func (s *SessionKey) PersonalMessage() []byte {
	return []byte(fmt.Sprintf(
		"Accessing keys of package %s for %d minutes from %d, session %s, requested by %s",
		s.packageID, int(s.ttl.Minutes()), s.createdAt.UnixMilli(), s.nonce, s.address,
	))
}

// SetPersonalMessageSignature attaches the identity's signature over
// PersonalMessage. The credential stays unusable until this succeeds.
func (s *SessionKey) SetPersonalMessageSignature(sig []byte) error {
	if len(sig) == 0 {
		return fmt.Errorf("empty personal message signature")
	}
	s.signature = sig
	return nil
}

// Signed reports whether the personal message signature is attached.
func (s *SessionKey) Signed() bool { return len(s.signature) > 0 }

// ExpiresAt is the instant the credential stops being valid.
func (s *SessionKey) ExpiresAt() time.Time { return s.createdAt.Add(s.ttl) }

// Valid checks the credential can authorize a key request at the given
// instant.
func (s *SessionKey) Valid(now time.Time) error {
	if !s.Signed() {
		return fmt.Errorf("session credential is not signed")
	}
	if now.After(s.ExpiresAt()) {
		return types.ErrSessionExpired
	}
	return nil
}

// Address returns the identity the credential is scoped to.
func (s *SessionKey) Address() string { return s.address }

// certificate is the wire form presented to key services.
type certificate struct {
	Address          string `json:"address"`
	PackageID        string `json:"packageId"`
	Nonce            string `json:"nonce"`
	CreatedAtMillis  int64  `json:"createdAtMs"`
	TTLMinutes       int    `json:"ttlMin"`
	SessionPublicKey string `json:"sessionPublicKey"`
	Signature        []byte `json:"signature"`
}

func (s *SessionKey) certificate() certificate {
	return certificate{
		Address:          s.address,
		PackageID:        s.packageID,
		Nonce:            s.nonce,
		CreatedAtMillis:  s.createdAt.UnixMilli(),
		TTLMinutes:       int(s.ttl.Minutes()),
		SessionPublicKey: s.priv.PublicKey.Hex(true),
		Signature:        s.signature,
	}
}
