package chronovault

import "github.com/chronovault/chronovault-go/internal/types"

// Public aliases for the shared domain types, so callers only import this
// package.
type (
	VaultType     = types.VaultType
	VaultFile     = types.VaultFile
	CustodyRecord = types.CustodyRecord
	VaultStatus   = types.VaultStatus
	VaultStats    = types.VaultStats
	StatusFilter  = types.StatusFilter

	FileInput           = types.FileInput
	CreateVaultRequest  = types.CreateVaultRequest
	CreateVaultResult   = types.CreateVaultResult
	CreateAccountResult = types.CreateAccountResult
	DecryptFileRequest  = types.DecryptFileRequest

	ProgressStage  = types.ProgressStage
	ProgressUpdate = types.ProgressUpdate
	ProgressFunc   = types.ProgressFunc
)

const (
	StatusLocked   = types.StatusLocked
	StatusUnlocked = types.StatusUnlocked

	FilterAll      = types.FilterAll
	FilterLocked   = types.FilterLocked
	FilterUnlocked = types.FilterUnlocked
	FilterPending  = types.FilterPending

	StageEncrypting    = types.StageEncrypting
	StageUploading     = types.StageUploading
	StageCreatingVault = types.StageCreatingVault
	StageComplete      = types.StageComplete
)
