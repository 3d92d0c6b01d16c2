package chronovault

import (
	"context"
	"fmt"

	"github.com/chronovault/chronovault-go/internal/ledger"
	"github.com/chronovault/chronovault-go/internal/types"
	"github.com/chronovault/chronovault-go/internal/walrus"
)

// Progress checkpoints. Encryption spans 0-80, linear in file index; the
// remaining 20 covers bundle storage and the vault-creation transaction.
const (
	pctEncryptSpan  = 80.0
	pctCreatingTx   = 85.0
	pctAwaitConfirm = 90.0
	pctComplete     = 100.0
)

// CreateVault drives the end-to-end "create a vault from N plaintext files"
// protocol: resolve the allow-list, encrypt each file under a fresh policy
// id, store all ciphertexts as one bundle through the four-phase storage
// flow, then create the vault object on the ledger in a single transaction.
//
// The operation fails as a unit: a vault exists on the ledger only if the
// final transaction confirms. Files encrypted and uploaded before a later
// failure are orphaned (storage retention expires them); no rollback is
// attempted because the storage network has no transactional delete
// compatible with the ledger commit.
func (c *Client) CreateVault(ctx context.Context, req CreateVaultRequest) (*CreateVaultResult, error) {
	if c.signer == nil {
		return nil, ErrWalletNotConnected
	}
	if err := types.ValidateCreateVault(req, c.cfg.maxFileSize(), c.cfg.maxFilesPerVault()); err != nil {
		return nil, err
	}
	report := func(u ProgressUpdate) {
		if req.OnProgress != nil {
			req.OnProgress(u)
		}
	}
	total := len(req.Files)
	logger := c.log.With().Str("vault_name", req.Name).Int("files", total).Logger()

	// Aliases resolve before any encryption work; a partial authorization
	// list is never created.
	resolved := make([]string, 0, len(req.AuthorizedAddresses))
	for _, a := range req.AuthorizedAddresses {
		addr, err := c.resolver.Resolve(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("authorized address %q: %w", a, err)
		}
		resolved = append(resolved, addr)
	}

	report(ProgressUpdate{
		Stage: StageEncrypting, TotalFiles: total,
		Message: "Starting encryption process...",
	})

	// The creation timestamp qualifies every policy id, so seal ids are
	// never reused across files or vaults.
	createdAt := c.now().UnixMilli()
	sealIDs := make([][]byte, 0, total)
	storeFiles := make([]walrus.File, 0, total)
	for i, f := range req.Files {
		report(ProgressUpdate{
			Stage: StageEncrypting, CurrentFile: i + 1, TotalFiles: total,
			Message:    fmt.Sprintf("Encrypting %s...", f.Name),
			Percentage: float64(i) / float64(total) * pctEncryptSpan,
		})
		policyID := []byte(fmt.Sprintf("%s:%s:%d", req.Name, f.Name, createdAt))
		ciphertext, keyID, err := c.seal.Encrypt(ctx, policyID, f.Data, c.cfg.Threshold)
		if err != nil {
			vaultCreateFailuresTotal.WithLabelValues("encrypt").Inc()
			return nil, fmt.Errorf("file %q: %w", f.Name, err)
		}
		filesEncryptedTotal.Inc()
		sealIDs = append(sealIDs, keyID)
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		storeFiles = append(storeFiles, walrus.File{
			Identifier: f.Name,
			Tags: map[string]string{
				"content-type":  contentType,
				"original-size": fmt.Sprintf("%d", len(f.Data)),
				"encrypted":     "true",
				"vault-name":    req.Name,
			},
			Contents: ciphertext,
		})
	}

	// One bundle covers all files; batching keeps ledger round-trips at two
	// (register + certify) regardless of file count.
	report(ProgressUpdate{
		Stage: StageUploading, CurrentFile: total, TotalFiles: total,
		Message: "Storing encrypted files...", Percentage: pctEncryptSpan,
	})
	flow := c.storage.WriteFilesFlow(storeFiles)
	if err := flow.Encode(); err != nil {
		vaultCreateFailuresTotal.WithLabelValues("encode").Inc()
		return nil, fmt.Errorf("%w: encode: %w", ErrStorageRegisterFailed, err)
	}
	registerTx, err := flow.Register(c.signer.Address(), c.cfg.StorageEpochs, c.cfg.StorageDeletable)
	if err != nil {
		vaultCreateFailuresTotal.WithLabelValues("register").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorageRegisterFailed, err)
	}
	regRes, err := c.signAndExecute(ctx, registerTx)
	if err != nil {
		vaultCreateFailuresTotal.WithLabelValues("register").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorageRegisterFailed, err)
	}
	logger.Debug().Str("digest", regRes.Digest).Msg("storage bundle registered")

	if err := flow.Upload(ctx, regRes.Digest); err != nil {
		vaultCreateFailuresTotal.WithLabelValues("upload").Inc()
		return nil, err
	}
	certifyTx, err := flow.Certify()
	if err != nil {
		vaultCreateFailuresTotal.WithLabelValues("certify").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorageCertifyFailed, err)
	}
	if _, err := c.signAndExecute(ctx, certifyTx); err != nil {
		vaultCreateFailuresTotal.WithLabelValues("certify").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorageCertifyFailed, err)
	}
	stored, err := flow.ListFiles()
	if err != nil {
		vaultCreateFailuresTotal.WithLabelValues("certify").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorageCertifyFailed, err)
	}

	report(ProgressUpdate{
		Stage: StageCreatingVault, CurrentFile: total, TotalFiles: total,
		Message: "Creating vault on the ledger...", Percentage: pctCreatingTx,
	})
	blobIDs := make([][]byte, len(stored))
	fileIdentifiers := make([][]byte, len(stored))
	for i, s := range stored {
		blobIDs[i] = []byte(s.BlobID)
		fileIdentifiers[i] = []byte(s.Identifier)
	}
	tx := ledger.NewTransaction().MoveCall(
		c.cfg.PackageID+"::vault_access::create_vault",
		ledger.Object(c.cfg.AccountRootID),
		ledger.PureU64(uint64(req.UnlockTime)),
		ledger.PureAddressVector(resolved),
		ledger.PureBytesVector(sealIDs),
		ledger.PureBytesVector(blobIDs),
		ledger.PureBytesVector(fileIdentifiers),
		ledger.PureString(req.Name),
		ledger.PureString(req.Description),
		ledger.Object(c.cfg.ClockID),
	)

	report(ProgressUpdate{
		Stage: StageCreatingVault, CurrentFile: total, TotalFiles: total,
		Message: "Waiting for transaction confirmation...", Percentage: pctAwaitConfirm,
	})
	res, err := c.signAndExecute(ctx, tx)
	if err != nil {
		vaultCreateFailuresTotal.WithLabelValues("create_vault").Inc()
		return nil, err
	}

	vaultID, ok := ledger.ExtractEventField(res.Events, "VaultCreated", "vault_id")
	if !ok {
		// Degraded path: the digest stands in for the object id when the
		// event is missing. Readable lists will self-heal on next fetch.
		logger.Warn().Str("digest", res.Digest).Msg("VaultCreated event missing, falling back to digest")
		vaultID = res.Digest
	}

	report(ProgressUpdate{
		Stage: StageComplete, CurrentFile: total, TotalFiles: total,
		Message: "Vault created successfully!", Percentage: pctComplete,
	})
	vaultsCreatedTotal.Inc()
	logger.Info().Str("vault_id", vaultID).Str("digest", res.Digest).Msg("vault created")

	files := make([]VaultFile, total)
	for i := range stored {
		files[i] = VaultFile{Name: stored[i].Identifier, SealID: string(sealIDs[i]), BlobID: stored[i].BlobID}
	}
	return &CreateVaultResult{
		VaultID:           vaultID,
		TransactionDigest: res.Digest,
		BundleID:          flow.BundleID(),
		Files:             files,
	}, nil
}
