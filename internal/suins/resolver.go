// Package suins resolves human-readable name aliases (@name, @name.sui) to
// canonical addresses through the name-service registry object.
package suins

import (
	"context"
	"fmt"
	"strings"

	"github.com/chronovault/chronovault-go/internal/ledger"
	"github.com/chronovault/chronovault-go/internal/types"
)

// Resolver looks names up as dynamic fields of the registry object.
type Resolver struct {
	ledger     *ledger.Client
	registryID string
}

// New constructs a resolver over the given ledger client.
func New(l *ledger.Client, registryID string) *Resolver {
	return &Resolver{ledger: l, registryID: registryID}
}

// Resolve maps an alias or address to a canonical address. Addresses pass
// through unchanged; an alias that cannot be resolved is an error, never a
// partial result.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if !types.IsNameAlias(name) {
		if !types.IsAddress(name) {
			return "", fmt.Errorf("%w: %q is not a valid address", types.ErrValidation, name)
		}
		return name, nil
	}
	clean := strings.TrimPrefix(name, "@")
	clean = strings.TrimSuffix(clean, ".sui")

	obj, err := r.ledger.GetDynamicFieldObject(ctx, r.registryID, clean)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", name, err)
	}
	target, _ := obj.Fields["target_address"].(string)
	if !types.IsAddress(target) {
		return "", fmt.Errorf("%w: name %q has no target address", types.ErrNotFound, name)
	}
	return target, nil
}
