package pairsource

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/fixedpoint"
	"liquidityCore/internal/ledger"
	"liquidityCore/internal/model"
)

// Mirror bootstraps a local pool holding the pair's reserves. The reserves
// are credited to provider first so the engine can settle them through book.
func Mirror(ctx context.Context, engine *amm.Engine, book *ledger.Memory, provider common.Address, pair model.PairReserves, feeBasisPoints uint64) (*amm.Pool, error) {
	token0 := common.HexToAddress(pair.Token0)
	token1 := common.HexToAddress(pair.Token1)
	reserve0, err := fixedpoint.ParseAmount(pair.Reserve0)
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := fixedpoint.ParseAmount(pair.Reserve1)
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}

	if err := book.Credit(provider, token0, reserve0); err != nil {
		return nil, err
	}
	if err := book.Credit(provider, token1, reserve1); err != nil {
		return nil, err
	}
	pool, _, err := engine.Initialize(ctx, provider, token0, token1, reserve0, reserve1, feeBasisPoints)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mirror of %s: %w", pair.Pair, err)
	}
	return pool, nil
}
