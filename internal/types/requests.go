package types

// ------------------------------
// Requests & Results
// ------------------------------

// FileInput is one plaintext file to place in a vault.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateVaultRequest describes one end-to-end vault creation.
type CreateVaultRequest struct {
	Name        string
	Description string
	Files       []FileInput

	// UnlockTime is a unix timestamp in milliseconds; 0 means no time-lock.
	UnlockTime int64

	// AuthorizedAddresses may contain canonical addresses or @name aliases;
	// aliases are resolved before any encryption work. Empty means
	// unrestricted after unlock.
	AuthorizedAddresses []string

	// OnProgress, when non-nil, receives stage updates as the orchestration
	// advances. It is called from the orchestrating goroutine.
	OnProgress ProgressFunc
}

// CreateVaultResult is returned once the vault exists on the ledger.
type CreateVaultResult struct {
	VaultID           string      `json:"vaultId"`
	TransactionDigest string      `json:"transactionDigest"`
	BundleID          string      `json:"bundleId"` // storage bundle holding all ciphertexts
	Files             []VaultFile `json:"files"`
}

// DecryptFileRequest identifies one stored file to recover.
type DecryptFileRequest struct {
	VaultID        string
	FileIdentifier string // member name within the bundle
	SealID         string // key id binding the ciphertext to the policy

	// BundleID optionally overrides the storage location. When empty, the
	// vault record's blob id for SealID locates the bundle.
	BundleID string
}

// CreateAccountResult is returned after the account creation transaction.
type CreateAccountResult struct {
	TransactionDigest string `json:"transactionDigest"`
}
