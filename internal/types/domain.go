package types

import (
	"sort"
	"strings"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// VaultStatus is derived from the unlock time at read time; it is never
// stored on the ledger.
type VaultStatus string

const (
	StatusLocked   VaultStatus = "locked"
	StatusUnlocked VaultStatus = "unlocked"
)

// VaultFile is one artifact inside a vault. SealID binds the ciphertext to
// the key-service policy; BlobID locates the encrypted bytes in storage.
// Both are set once, at vault creation, and never reused.
type VaultFile struct {
	Name   string `json:"name"`
	SealID string `json:"sealId"`
	BlobID string `json:"blobId"`
}

// CustodyRecord is one entry in a vault's append-only custody trail,
// produced by ledger-side transfer operations.
type CustodyRecord struct {
	Custodian         string    `json:"custodian"`
	TransferredAt     time.Time `json:"transferredAt"`
	TransactionDigest string    `json:"transactionDigest"`
}

// VaultType is the view model for one on-chain vault object.
type VaultType struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	Owner               string          `json:"owner,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UnlockAt            time.Time       `json:"unlockAt"` // zero value means no time-lock
	Files               []VaultFile     `json:"files"`
	AuthorizedAddresses []string        `json:"authorizedAddresses"`
	CustodyTrail        []CustodyRecord `json:"custodyTrail"`
}

// StatusAt derives the lock status at the given instant. A vault is locked
// iff it has an unlock time and that time has not yet passed.
func (v VaultType) StatusAt(now time.Time) VaultStatus {
	if !v.UnlockAt.IsZero() && now.Before(v.UnlockAt) {
		return StatusLocked
	}
	return StatusUnlocked
}

// TimeLocked reports whether the vault carries a time-lock at all.
func (v VaultType) TimeLocked() bool { return !v.UnlockAt.IsZero() }

// SealIDs returns the per-file seal ids in file order.
func (v VaultType) SealIDs() []string {
	out := make([]string, len(v.Files))
	for i, f := range v.Files {
		out[i] = f.SealID
	}
	return out
}

// BlobIDs returns the per-file blob ids in file order.
func (v VaultType) BlobIDs() []string {
	out := make([]string, len(v.Files))
	for i, f := range v.Files {
		out[i] = f.BlobID
	}
	return out
}

// HasSealID reports whether keyID matches one of the vault's files.
func (v VaultType) HasSealID(keyID string) bool {
	for _, f := range v.Files {
		if f.SealID == keyID {
			return true
		}
	}
	return false
}

// ------------------------------
// Derived views
// ------------------------------

// PendingWindow is how far ahead a locked vault counts as pending unlock.
const PendingWindow = 24 * time.Hour

// VaultStats summarises a collection of vaults at one instant.
type VaultStats struct {
	Total               int        `json:"total"`
	Locked              int        `json:"locked"`
	Unlocked            int        `json:"unlocked"`
	Pending             int        `json:"pending"` // locked vaults unlocking within PendingWindow
	TotalFiles          int        `json:"totalFiles"`
	NextUnlock          *time.Time `json:"nextUnlock,omitempty"`
	DaysUntilNextUnlock int        `json:"daysUntilNextUnlock,omitempty"`
}

// ComputeStats derives summary statistics for a set of vaults. Pure; calling
// it twice with the same inputs yields identical results.
func ComputeStats(vaults []VaultType, now time.Time) VaultStats {
	st := VaultStats{Total: len(vaults)}
	var next time.Time
	for _, v := range vaults {
		st.TotalFiles += len(v.Files)
		if v.StatusAt(now) != StatusLocked {
			st.Unlocked++
			continue
		}
		st.Locked++
		if v.UnlockAt.Sub(now) <= PendingWindow {
			st.Pending++
		}
		if next.IsZero() || v.UnlockAt.Before(next) {
			next = v.UnlockAt
		}
	}
	if !next.IsZero() {
		st.NextUnlock = &next
		st.DaysUntilNextUnlock = int((next.Sub(now) + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	}
	return st
}

// StatusFilter selects vaults for list views.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterLocked   StatusFilter = "locked"
	FilterUnlocked StatusFilter = "unlocked"
	FilterPending  StatusFilter = "pending"
)

// FilterVaults returns the vaults matching the filter at the given instant.
func FilterVaults(vaults []VaultType, filter StatusFilter, now time.Time) []VaultType {
	if filter == FilterAll || filter == "" {
		return vaults
	}
	out := make([]VaultType, 0, len(vaults))
	for _, v := range vaults {
		switch filter {
		case FilterLocked:
			if v.StatusAt(now) == StatusLocked {
				out = append(out, v)
			}
		case FilterUnlocked:
			if v.StatusAt(now) == StatusUnlocked {
				out = append(out, v)
			}
		case FilterPending:
			if v.StatusAt(now) == StatusLocked && v.UnlockAt.Sub(now) <= PendingWindow {
				out = append(out, v)
			}
		}
	}
	return out
}

// SearchVaults matches the term against vault titles and descriptions,
// case-insensitively. An empty term returns the input unchanged.
func SearchVaults(vaults []VaultType, term string) []VaultType {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return vaults
	}
	out := make([]VaultType, 0, len(vaults))
	for _, v := range vaults {
		if strings.Contains(strings.ToLower(v.Title), term) ||
			strings.Contains(strings.ToLower(v.Description), term) {
			out = append(out, v)
		}
	}
	return out
}

// RecentVaults returns up to limit vaults, newest creation first. The input
// slice is not modified.
func RecentVaults(vaults []VaultType, limit int) []VaultType {
	out := make([]VaultType, len(vaults))
	copy(out, vaults)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
