package replay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/model"
)

func (r *Runner) credit(op model.Operation) error {
	account, err := ParseAddress("account", op.Account)
	if err != nil {
		return err
	}
	asset, err := ParseAddress("asset", op.Asset)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return err
	}
	return r.ledger.Credit(account, asset, amount)
}

func (r *Runner) initialize(ctx context.Context, op model.Operation) error {
	account, tokenA, tokenB, err := parseParties(op)
	if err != nil {
		return err
	}
	amountA, amountB, err := parsePair(op)
	if err != nil {
		return err
	}
	_, _, err = r.engine.Initialize(ctx, account, tokenA, tokenB, amountA, amountB, op.FeeBps)
	return err
}

func (r *Runner) addLiquidity(ctx context.Context, op model.Operation) error {
	account, tokenA, tokenB, err := parseParties(op)
	if err != nil {
		return err
	}
	amountA, amountB, err := parsePair(op)
	if err != nil {
		return err
	}
	pool, err := r.engine.Registry().Lookup(tokenA, tokenB)
	if err != nil {
		return err
	}
	if tokenA != pool.TokenA() {
		amountA, amountB = amountB, amountA
	}
	_, err = r.engine.AddLiquidity(ctx, account, pool.ID(), amountA, amountB)
	return err
}

func (r *Runner) removeLiquidity(ctx context.Context, op model.Operation) error {
	account, tokenA, tokenB, err := parseParties(op)
	if err != nil {
		return err
	}
	liquidity, err := parseAmount("amount", op.Amount)
	if err != nil {
		return err
	}
	pool, err := r.engine.Registry().Lookup(tokenA, tokenB)
	if err != nil {
		return err
	}
	_, err = r.engine.RemoveLiquidity(ctx, account, pool.ID(), liquidity)
	return err
}

// swap handles both directions of pricing. Without a limit an exact-input
// swap accepts any output and an exact-output swap accepts any input.
func (r *Runner) swap(ctx context.Context, op model.Operation) error {
	account, tokenA, tokenB, err := parseParties(op)
	if err != nil {
		return err
	}
	tokenIn, err := ParseAddress("token_in", op.TokenIn)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return err
	}
	pool, err := r.engine.Registry().Lookup(tokenA, tokenB)
	if err != nil {
		return err
	}

	if op.Op == model.OpSwapExactOut {
		maxIn, err := parseLimit(op.Limit, maxAmount)
		if err != nil {
			return err
		}
		_, err = r.engine.SwapExactOutput(ctx, account, pool.ID(), tokenIn, amount, maxIn)
		return err
	}
	minOut, err := parseLimit(op.Limit, new(uint256.Int))
	if err != nil {
		return err
	}
	_, err = r.engine.Swap(ctx, account, pool.ID(), tokenIn, amount, minOut)
	return err
}

func parseParties(op model.Operation) (account, tokenA, tokenB common.Address, err error) {
	if account, err = ParseAddress("account", op.Account); err != nil {
		return
	}
	if tokenA, err = ParseAddress("token_a", op.TokenA); err != nil {
		return
	}
	tokenB, err = ParseAddress("token_b", op.TokenB)
	return
}

func parsePair(op model.Operation) (*uint256.Int, *uint256.Int, error) {
	amountA, err := parseAmount("amount_a", op.AmountA)
	if err != nil {
		return nil, nil, err
	}
	amountB, err := parseAmount("amount_b", op.AmountB)
	if err != nil {
		return nil, nil, err
	}
	return amountA, amountB, nil
}
