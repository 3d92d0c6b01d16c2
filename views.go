package chronovault

import (
	"time"

	"github.com/chronovault/chronovault-go/internal/types"
)

// Pure views over parsed vaults. All derive from the inputs and the given
// instant only; none of them touch the network.

// Status derives a vault's lock state against the client clock.
func (c *Client) Status(v VaultType) VaultStatus { return v.StatusAt(c.now()) }

// ComputeStats summarises a set of vaults at one instant.
func ComputeStats(vaults []VaultType, now time.Time) VaultStats {
	return types.ComputeStats(vaults, now)
}

// FilterVaults selects vaults by status at one instant.
func FilterVaults(vaults []VaultType, filter StatusFilter, now time.Time) []VaultType {
	return types.FilterVaults(vaults, filter, now)
}

// SearchVaults matches the term against titles and descriptions.
func SearchVaults(vaults []VaultType, term string) []VaultType {
	return types.SearchVaults(vaults, term)
}

// RecentVaults returns up to limit vaults, newest first.
func RecentVaults(vaults []VaultType, limit int) []VaultType {
	return types.RecentVaults(vaults, limit)
}
