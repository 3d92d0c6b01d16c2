package chronovault

import (
	"context"
	"fmt"

	"github.com/chronovault/chronovault-go/internal/ledger"
	"github.com/chronovault/chronovault-go/internal/seal"
)

// DecryptVaultFile recovers one file's plaintext from a vault the connected
// identity may access. The read path is pure read/verify: it mints a fresh
// session credential, has the identity sign it, builds an approval
// transaction that is only ever replayed by key services (never submitted),
// requests quorum key shares, and decrypts locally.
//
// A quorum rejection (vault still time-locked, or identity not authorized)
// surfaces as ErrAccessDenied, an expected outcome rather than a fault.
func (c *Client) DecryptVaultFile(ctx context.Context, req DecryptFileRequest) ([]byte, error) {
	if c.signer == nil {
		return nil, ErrWalletNotConnected
	}
	logger := c.log.With().Str("vault_id", req.VaultID).Str("file", req.FileIdentifier).Logger()

	// The key id must belong to the vault before any key service is
	// contacted; an unknown id is a caller mistake, not a policy decision.
	vaultObj, err := c.ledger.GetObject(ctx, req.VaultID)
	if err != nil {
		return nil, err
	}
	vault, err := ParseVaultObject(vaultObj)
	if err != nil {
		return nil, err
	}
	var record *VaultFile
	for i := range vault.Files {
		if vault.Files[i].SealID == req.SealID {
			record = &vault.Files[i]
			break
		}
	}
	if record == nil {
		return nil, fmt.Errorf("%w: key id %q is not part of vault %s", ErrNotFound, req.SealID, req.VaultID)
	}

	// The vault record's blob id is enough to locate the bundle; an explicit
	// BundleID only overrides it.
	bundleRef := req.BundleID
	if bundleRef == "" {
		bundleRef = record.BlobID
	}
	blob, err := c.storage.GetBlob(ctx, bundleRef)
	if err != nil {
		return nil, err
	}
	members, err := blob.Files([]string{req.FileIdentifier})
	if err != nil {
		return nil, err
	}
	ciphertext := members[0].Bytes()
	loadedID, err := c.seal.LoadCiphertext(ciphertext)
	if err != nil {
		decryptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if string(loadedID) != req.SealID {
		decryptionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: ciphertext is bound to key id %q, not %q",
			ErrDecryptionFailed, loadedID, req.SealID)
	}

	// Fresh credential per attempt; never reused across files or after
	// expiry.
	sk, err := seal.NewSessionKey(c.signer.Address(), c.cfg.PackageID, c.cfg.SessionTTL, c.now())
	if err != nil {
		return nil, err
	}
	sig, err := c.signer.SignPersonalMessage(ctx, sk.PersonalMessage())
	if err != nil {
		return nil, fmt.Errorf("signing session credential: %w", err)
	}
	if err := sk.SetPersonalMessageSignature(sig); err != nil {
		return nil, err
	}

	// The approval transaction exists only to be replayed by key services
	// against live ledger state; it carries no sender and is never
	// submitted.
	keyID := []byte(req.SealID)
	approval := ledger.NewTransaction().MoveCall(
		c.cfg.PackageID+"::vault_access::seal_approve",
		ledger.PureBytes(keyID),
		ledger.Object(req.VaultID),
		ledger.Object(c.cfg.ClockID),
	)
	txBytes, err := approval.BuildKind()
	if err != nil {
		return nil, err
	}

	if err := c.seal.FetchKeys(ctx, [][]byte{keyID}, txBytes, sk, c.cfg.Threshold); err != nil {
		if IsAccessDenied(err) {
			decryptionsTotal.WithLabelValues("denied").Inc()
			logger.Info().Msg("key services denied access")
		} else {
			decryptionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	plain, err := c.seal.Decrypt(ctx, ciphertext, sk, txBytes)
	if err != nil {
		decryptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	decryptionsTotal.WithLabelValues("ok").Inc()
	logger.Debug().Int("bytes", len(plain)).Msg("file decrypted")
	return plain, nil
}
