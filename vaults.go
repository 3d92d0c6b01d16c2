package chronovault

import (
	"context"
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"
)

// AccountObjectID derives the connected identity's account object address
// from the account root, mirroring the contract's derived-object scheme.
func (c *Client) AccountObjectID() (string, error) {
	if c.signer == nil {
		return "", ErrWalletNotConnected
	}
	return deriveAccountID(c.cfg.AccountRootID, c.signer.Address()), nil
}

func deriveAccountID(rootID, address string) string {
	h := blake3.New(32, nil)
	_, _ = h.Write(hexBytes(rootID))
	_, _ = h.Write([]byte("address"))
	_, _ = h.Write(hexBytes(address))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func hexBytes(id string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(id, "0x"))
	if err != nil {
		return []byte(id)
	}
	return b
}

// UserVaults lists the vaults owned by the connected identity's account
// object. Objects that fail to parse are logged and skipped rather than
// rendered with wrong values.
func (c *Client) UserVaults(ctx context.Context) ([]VaultType, error) {
	accountID, err := c.AccountObjectID()
	if err != nil {
		return nil, err
	}
	objs, err := c.ledger.GetOwnedObjects(ctx, accountID, c.cfg.vaultStructType())
	if err != nil {
		return nil, err
	}
	vaults := make([]VaultType, 0, len(objs))
	for i := range objs {
		v, err := ParseVaultObject(&objs[i])
		if err != nil {
			c.log.Warn().Err(err).Str("object_id", objs[i].ObjectID).Msg("skipping malformed vault object")
			continue
		}
		vaults = append(vaults, *v)
	}
	return vaults, nil
}

// GetVault fetches and parses one vault by id.
func (c *Client) GetVault(ctx context.Context, vaultID string) (*VaultType, error) {
	obj, err := c.ledger.GetObject(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	return ParseVaultObject(obj)
}

// VaultStats summarises the connected identity's vaults against the client
// clock.
func (c *Client) VaultStats(ctx context.Context) (VaultStats, error) {
	vaults, err := c.UserVaults(ctx)
	if err != nil {
		return VaultStats{}, err
	}
	return ComputeStats(vaults, c.now()), nil
}
