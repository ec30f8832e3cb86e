package amm

import (
	"fmt"

	"github.com/holiman/uint256"

	"liquidityCore/internal/fixedpoint"
)

// LiquidityResult describes an accepted deposit.
type LiquidityResult struct {
	Minted  uint256.Int
	ActualA uint256.Int
	ActualB uint256.Int
}

// WithdrawResult describes an accepted withdrawal.
type WithdrawResult struct {
	Burned  uint256.Int
	AmountA uint256.Int
	AmountB uint256.Int
}

// AddLiquidity deposits at most (amountA, amountB) at the pool's current
// ratio. Minted liquidity is floored and the consumed amounts are rounded up,
// so a depositor never dilutes existing holders.
func AddLiquidity(pool *Pool, amountA, amountB *uint256.Int) (LiquidityResult, error) {
	return addLiquidity(pool, amountA, amountB, nil)
}

// RemoveLiquidity burns liquidity and returns the floored share of each
// reserve.
func RemoveLiquidity(pool *Pool, liquidity *uint256.Int) (WithdrawResult, error) {
	return removeLiquidity(pool, liquidity, nil)
}

func addLiquidity(pool *Pool, amountA, amountB *uint256.Int, settle func(LiquidityResult, State) error) (LiquidityResult, error) {
	var res LiquidityResult
	plan := func(cur State) (State, error) {
		var err error
		res, err = planDeposit(cur, amountA, amountB)
		if err != nil {
			return State{}, err
		}
		return applyDeposit(cur, res)
	}
	var hook func(cur, next State) error
	if settle != nil {
		hook = func(_, next State) error { return settle(res, next) }
	}
	if err := pool.update(plan, hook); err != nil {
		return LiquidityResult{}, err
	}
	return res, nil
}

func removeLiquidity(pool *Pool, liquidity *uint256.Int, settle func(WithdrawResult, State) error) (WithdrawResult, error) {
	var res WithdrawResult
	plan := func(cur State) (State, error) {
		var err error
		res, err = planWithdraw(cur, liquidity)
		if err != nil {
			return State{}, err
		}
		return applyWithdraw(cur, res)
	}
	var hook func(cur, next State) error
	if settle != nil {
		hook = func(_, next State) error { return settle(res, next) }
	}
	if err := pool.update(plan, hook); err != nil {
		return WithdrawResult{}, err
	}
	return res, nil
}

func planDeposit(cur State, amountA, amountB *uint256.Int) (LiquidityResult, error) {
	if cur.TotalLiquidity.IsZero() {
		return planReseed(amountA, amountB)
	}
	if cur.ReserveA.IsZero() || cur.ReserveB.IsZero() {
		return LiquidityResult{}, ErrInsufficientLiquidity
	}

	mintA, err := fixedpoint.MulDiv(amountA, &cur.TotalLiquidity, &cur.ReserveA)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("mint for asset A: %w", err)
	}
	mintB, err := fixedpoint.MulDiv(amountB, &cur.TotalLiquidity, &cur.ReserveB)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("mint for asset B: %w", err)
	}
	minted := fixedpoint.Min(mintA, mintB)
	if minted.IsZero() {
		return LiquidityResult{}, ErrZeroLiquidityMinted
	}

	actualA, err := fixedpoint.MulDivRoundingUp(minted, &cur.ReserveA, &cur.TotalLiquidity)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("consumed asset A: %w", err)
	}
	actualB, err := fixedpoint.MulDivRoundingUp(minted, &cur.ReserveB, &cur.TotalLiquidity)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("consumed asset B: %w", err)
	}
	return LiquidityResult{Minted: *minted, ActualA: *actualA, ActualB: *actualB}, nil
}

// planReseed handles a pool whose liquidity was fully withdrawn. The deposit
// sets a new ratio the same way bootstrap does.
func planReseed(amountA, amountB *uint256.Int) (LiquidityResult, error) {
	if amountA.IsZero() || amountB.IsZero() {
		return LiquidityResult{}, ErrZeroLiquidityMinted
	}
	return LiquidityResult{
		Minted:  *fixedpoint.SqrtProduct(amountA, amountB),
		ActualA: *amountA,
		ActualB: *amountB,
	}, nil
}

func applyDeposit(cur State, res LiquidityResult) (State, error) {
	next := cur
	reserveA, err := fixedpoint.Add(&cur.ReserveA, &res.ActualA)
	if err != nil {
		return State{}, err
	}
	reserveB, err := fixedpoint.Add(&cur.ReserveB, &res.ActualB)
	if err != nil {
		return State{}, err
	}
	supply, err := fixedpoint.Add(&cur.TotalLiquidity, &res.Minted)
	if err != nil {
		return State{}, err
	}
	next.ReserveA, next.ReserveB, next.TotalLiquidity = *reserveA, *reserveB, *supply
	return next, nil
}

func planWithdraw(cur State, liquidity *uint256.Int) (WithdrawResult, error) {
	if liquidity.IsZero() || liquidity.Gt(&cur.TotalLiquidity) {
		return WithdrawResult{}, fmt.Errorf("%w: burn %s of %s", ErrInsufficientLiquidity, liquidity.Dec(), cur.TotalLiquidity.Dec())
	}
	amountA, err := fixedpoint.MulDiv(&cur.ReserveA, liquidity, &cur.TotalLiquidity)
	if err != nil {
		return WithdrawResult{}, err
	}
	amountB, err := fixedpoint.MulDiv(&cur.ReserveB, liquidity, &cur.TotalLiquidity)
	if err != nil {
		return WithdrawResult{}, err
	}
	if amountA.IsZero() && amountB.IsZero() {
		return WithdrawResult{}, ErrZeroWithdrawal
	}
	return WithdrawResult{Burned: *liquidity, AmountA: *amountA, AmountB: *amountB}, nil
}

func applyWithdraw(cur State, res WithdrawResult) (State, error) {
	next := cur
	reserveA, err := fixedpoint.Sub(&cur.ReserveA, &res.AmountA)
	if err != nil {
		return State{}, err
	}
	reserveB, err := fixedpoint.Sub(&cur.ReserveB, &res.AmountB)
	if err != nil {
		return State{}, err
	}
	supply, err := fixedpoint.Sub(&cur.TotalLiquidity, &res.Burned)
	if err != nil {
		return State{}, err
	}
	next.ReserveA, next.ReserveB, next.TotalLiquidity = *reserveA, *reserveB, *supply
	return next, nil
}
