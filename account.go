package chronovault

import (
	"context"
	"fmt"
	"strings"

	"github.com/chronovault/chronovault-go/internal/ledger"
)

// CreateAccount creates the connected identity's account object under the
// account root. Vaults are owned by this derived object, not by the wallet
// address directly.
func (c *Client) CreateAccount(ctx context.Context, userName string) (*CreateAccountResult, error) {
	if c.signer == nil {
		return nil, ErrWalletNotConnected
	}
	if strings.TrimSpace(userName) == "" {
		return nil, fmt.Errorf("%w: user name is required", ErrValidation)
	}
	tx := ledger.NewTransaction().MoveCall(
		c.cfg.PackageID+"::vault_access::create_account",
		ledger.Object(c.cfg.AccountRootID),
		ledger.PureString(userName),
		ledger.Object(c.cfg.ClockID),
	)
	res, err := c.signAndExecute(ctx, tx)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("digest", res.Digest).Str("user", userName).Msg("account created")
	return &CreateAccountResult{TransactionDigest: res.Digest}, nil
}
