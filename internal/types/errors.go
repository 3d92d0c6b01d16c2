package types

import "errors"

// Shared sentinel errors for the SDK. Orchestrator failures always wrap one
// of these so callers can switch on errors.Is without string matching.
var (
	// ErrWalletNotConnected: the operation needs a signing identity and none
	// is configured. Surfaced before any side effect.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrValidation: the request is malformed (zero files, no lock type, ...).
	// Rejected before any encryption, storage or ledger work.
	ErrValidation = errors.New("invalid request")

	// ErrEncryptionFailed: local encryption computation failed.
	ErrEncryptionFailed = errors.New("encryption failed")

	// Storage phase failures. Register failures are safe to retry from
	// scratch; upload/certify failures must retry the same phase only.
	ErrStorageRegisterFailed = errors.New("storage register failed")
	ErrStorageUploadFailed   = errors.New("storage upload failed")
	ErrStorageCertifyFailed  = errors.New("storage certify failed")

	// ErrLedgerTransactionFailed: the transaction executed and reverted
	// on-chain; the message carries the chain-reported reason.
	ErrLedgerTransactionFailed = errors.New("ledger transaction failed")

	// ErrSubmissionTimeout: the ledger call did not confirm in time. Never
	// retried automatically; a retry risks duplicate side effects.
	ErrSubmissionTimeout = errors.New("ledger submission timed out")

	// ErrAccessDenied: the key-service quorum rejected the approval
	// transaction. An expected user-facing outcome, not a system fault.
	ErrAccessDenied = errors.New("access denied by key services")

	// ErrDecryptionFailed: key shares were obtained but plaintext recovery
	// failed (corrupt ciphertext or mismatched shares).
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNotFound: a requested bundle member or object is absent.
	ErrNotFound = errors.New("not found")

	// ErrSchemaMismatch: a raw ledger object does not have the expected
	// shape; surfaced instead of producing silently wrong view models.
	ErrSchemaMismatch = errors.New("ledger object schema mismatch")

	// ErrSessionExpired: the session credential's time-to-live has elapsed.
	ErrSessionExpired = errors.New("session credential expired")
)
