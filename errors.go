package chronovault

import (
	"errors"

	"github.com/chronovault/chronovault-go/internal/types"
)

// Shared sentinel errors, re-exported so callers compare against a single
// symbol with errors.Is.
var (
	ErrWalletNotConnected      = types.ErrWalletNotConnected
	ErrValidation              = types.ErrValidation
	ErrEncryptionFailed        = types.ErrEncryptionFailed
	ErrStorageRegisterFailed   = types.ErrStorageRegisterFailed
	ErrStorageUploadFailed     = types.ErrStorageUploadFailed
	ErrStorageCertifyFailed    = types.ErrStorageCertifyFailed
	ErrLedgerTransactionFailed = types.ErrLedgerTransactionFailed
	ErrSubmissionTimeout       = types.ErrSubmissionTimeout
	ErrAccessDenied            = types.ErrAccessDenied
	ErrDecryptionFailed        = types.ErrDecryptionFailed
	ErrNotFound                = types.ErrNotFound
	ErrSchemaMismatch          = types.ErrSchemaMismatch
	ErrSessionExpired          = types.ErrSessionExpired
)

// IsAccessDenied reports whether err is a key-service quorum rejection.
// This is an expected outcome (vault still time-locked, or the identity is
// not on the allow-list), to be rendered as an informative state rather than
// a failure banner.
func IsAccessDenied(err error) bool { return errors.Is(err, ErrAccessDenied) }

// IsNotFound reports whether err is a missing bundle member or object.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a request rejected before any side
// effect.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsDecryptionFailed reports whether err is a local cryptographic failure,
// such as a ciphertext that does not match the requested key id.
func IsDecryptionFailed(err error) bool { return errors.Is(err, ErrDecryptionFailed) }
