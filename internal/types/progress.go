package types

// ProgressStage names the phase a vault creation is currently in.
type ProgressStage string

const (
	StageEncrypting    ProgressStage = "encrypting"
	StageUploading     ProgressStage = "uploading"
	StageCreatingVault ProgressStage = "creating_vault"
	StageComplete      ProgressStage = "complete"
)

// ProgressUpdate is the ephemeral, UI-facing progress value. Percentages are
// monotonically increasing within one invocation: 0-80 encrypting, 85-100
// vault creation.
type ProgressUpdate struct {
	Stage       ProgressStage `json:"stage"`
	CurrentFile int           `json:"currentFile"`
	TotalFiles  int           `json:"totalFiles"`
	Message     string        `json:"message"`
	Percentage  float64       `json:"percentage"`
}

// ProgressFunc observes progress updates during vault creation.
type ProgressFunc func(ProgressUpdate)
