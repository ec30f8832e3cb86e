package amm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transfer moves Amount of Asset between ledger accounts. A zero From mints
// and a zero To burns; only liquidity tokens are minted or burned.
type Transfer struct {
	Asset  common.Address
	From   common.Address
	To     common.Address
	Amount uint256.Int
}

// Ledger is the token-custody collaborator. The engine never touches
// balances directly.
type Ledger interface {
	// Authorize verifies owner controls at least amount of asset.
	Authorize(ctx context.Context, owner, asset common.Address, amount *uint256.Int) error
	// Apply executes all transfers or none of them.
	Apply(ctx context.Context, transfers []Transfer) error
}
