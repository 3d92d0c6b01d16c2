package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Upload limits, overridable through Config.
const (
	DefaultMaxFileSize      = 10 << 20 // 10 MiB
	DefaultMaxFilesPerVault = 50
)

var addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// IsAddress reports whether s is a canonical 32-byte hex address.
func IsAddress(s string) bool { return addressRe.MatchString(s) }

// IsNameAlias reports whether s is a name-service alias (@name or @name.sui).
func IsNameAlias(s string) bool { return strings.HasPrefix(s, "@") }

// ValidateCreateVault rejects malformed creation requests before any side
// effect. A vault with neither a time-lock nor an allow-list is a
// configuration error, not a valid vault.
func ValidateCreateVault(req CreateVaultRequest, maxFileSize int64, maxFiles int) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: vault name is required", ErrValidation)
	}
	if len(req.Files) == 0 {
		return fmt.Errorf("%w: at least one file is required", ErrValidation)
	}
	if maxFiles > 0 && len(req.Files) > maxFiles {
		return fmt.Errorf("%w: more than %d files", ErrValidation, maxFiles)
	}
	if req.UnlockTime < 0 {
		return fmt.Errorf("%w: negative unlock time", ErrValidation)
	}
	if req.UnlockTime == 0 && len(req.AuthorizedAddresses) == 0 {
		return fmt.Errorf("%w: vault needs a time-lock or an address allow-list", ErrValidation)
	}
	for _, f := range req.Files {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: file with empty name", ErrValidation)
		}
		if len(f.Data) == 0 {
			return fmt.Errorf("%w: file %q is empty", ErrValidation, f.Name)
		}
		if maxFileSize > 0 && int64(len(f.Data)) > maxFileSize {
			return fmt.Errorf("%w: file %q exceeds %d bytes", ErrValidation, f.Name, maxFileSize)
		}
	}
	for _, addr := range req.AuthorizedAddresses {
		if !IsAddress(addr) && !IsNameAlias(addr) {
			return fmt.Errorf("%w: %q is neither an address nor a name alias", ErrValidation, addr)
		}
	}
	return nil
}
