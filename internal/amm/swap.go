package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"liquidityCore/internal/fixedpoint"
)

var basisPoints = uint256.NewInt(fixedpoint.BasisPoints)

// SwapQuote is the priced outcome of a trade against one state snapshot.
// PriceImpactBps is informational; slippage limits are enforced through
// minAmountOut / maxAmountIn only.
type SwapQuote struct {
	InputIsAssetA  bool
	AmountIn       uint256.Int
	AmountOut      uint256.Int
	FeeAmount      uint256.Int
	NetInput       uint256.Int
	PriceImpactBps uint64
}

// QuoteExactInput prices selling amountIn of one asset without mutating the
// pool. The fee is taken from the input.
func QuoteExactInput(pool *Pool, inputIsAssetA bool, amountIn *uint256.Int) (SwapQuote, error) {
	var q SwapQuote
	err := pool.view(func(cur State) error {
		var err error
		q, err = quoteExactInput(cur, inputIsAssetA, amountIn)
		return err
	})
	return q, err
}

// ExecuteSwap prices the trade, enforces minAmountOut, and commits
// reserveIn += amountIn, reserveOut -= amountOut.
func ExecuteSwap(pool *Pool, inputIsAssetA bool, amountIn, minAmountOut *uint256.Int) (SwapQuote, error) {
	return executeSwap(pool, inputIsAssetA, amountIn, minAmountOut, nil)
}

// QuoteExactOutput prices buying exactly amountOut. The required input is
// rounded up.
func QuoteExactOutput(pool *Pool, inputIsAssetA bool, amountOut *uint256.Int) (SwapQuote, error) {
	var q SwapQuote
	err := pool.view(func(cur State) error {
		var err error
		q, err = quoteExactOutput(cur, inputIsAssetA, amountOut)
		return err
	})
	return q, err
}

// ExecuteSwapExactOutput buys exactly amountOut, failing if it would cost
// more than maxAmountIn.
func ExecuteSwapExactOutput(pool *Pool, inputIsAssetA bool, amountOut, maxAmountIn *uint256.Int) (SwapQuote, error) {
	return executeSwapExactOutput(pool, inputIsAssetA, amountOut, maxAmountIn, nil)
}

func executeSwap(pool *Pool, inputIsAssetA bool, amountIn, minAmountOut *uint256.Int, settle func(SwapQuote, State) error) (SwapQuote, error) {
	var q SwapQuote
	plan := func(cur State) (State, error) {
		var err error
		q, err = quoteExactInput(cur, inputIsAssetA, amountIn)
		if err != nil {
			return State{}, err
		}
		if q.AmountOut.Lt(minAmountOut) {
			return State{}, fmt.Errorf("%w: out %s < min %s", ErrSlippageExceeded, q.AmountOut.Dec(), minAmountOut.Dec())
		}
		return applySwap(cur, q)
	}
	if err := pool.update(plan, swapHook(&q, settle)); err != nil {
		return SwapQuote{}, err
	}
	return q, nil
}

func executeSwapExactOutput(pool *Pool, inputIsAssetA bool, amountOut, maxAmountIn *uint256.Int, settle func(SwapQuote, State) error) (SwapQuote, error) {
	var q SwapQuote
	plan := func(cur State) (State, error) {
		var err error
		q, err = quoteExactOutput(cur, inputIsAssetA, amountOut)
		if err != nil {
			return State{}, err
		}
		if q.AmountIn.Gt(maxAmountIn) {
			return State{}, fmt.Errorf("%w: in %s > max %s", ErrSlippageExceeded, q.AmountIn.Dec(), maxAmountIn.Dec())
		}
		return applySwap(cur, q)
	}
	if err := pool.update(plan, swapHook(&q, settle)); err != nil {
		return SwapQuote{}, err
	}
	return q, nil
}

func swapHook(q *SwapQuote, settle func(SwapQuote, State) error) func(cur, next State) error {
	return func(cur, next State) error {
		// The retained fee is the only source of growth in k.
		if !q.FeeAmount.IsZero() && next.K().Cmp(cur.K()) <= 0 {
			return fmt.Errorf("%w: fee-bearing swap did not grow k", ErrInvariantViolation)
		}
		if settle == nil {
			return nil
		}
		return settle(*q, next)
	}
}

func quoteExactInput(cur State, inputIsAssetA bool, amountIn *uint256.Int) (SwapQuote, error) {
	if amountIn.IsZero() {
		return SwapQuote{}, ErrInvalidAmount
	}
	reserveIn, reserveOut := cur.reserves(inputIsAssetA)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: empty reserves", ErrInsufficientLiquidity)
	}

	fee, err := fixedpoint.MulDiv(amountIn, uint256.NewInt(cur.FeeBasisPoints), basisPoints)
	if err != nil {
		return SwapQuote{}, err
	}
	net, err := fixedpoint.Sub(amountIn, fee)
	if err != nil {
		return SwapQuote{}, err
	}
	denominator, err := fixedpoint.Add(reserveIn, net)
	if err != nil {
		return SwapQuote{}, err
	}
	amountOut, err := fixedpoint.MulDiv(reserveOut, net, denominator)
	if err != nil {
		return SwapQuote{}, err
	}
	if amountOut.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: output rounds to zero", ErrInsufficientLiquidity)
	}
	if !amountOut.Lt(reserveOut) {
		return SwapQuote{}, fmt.Errorf("%w: output %s drains reserve %s", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}

	impact := priceImpact(reserveIn, reserveOut, net, amountOut)
	return SwapQuote{
		InputIsAssetA:  inputIsAssetA,
		AmountIn:       *amountIn,
		AmountOut:      *amountOut,
		FeeAmount:      *fee,
		NetInput:       *net,
		PriceImpactBps: impact,
	}, nil
}

func quoteExactOutput(cur State, inputIsAssetA bool, amountOut *uint256.Int) (SwapQuote, error) {
	if amountOut.IsZero() {
		return SwapQuote{}, ErrInvalidAmount
	}
	reserveIn, reserveOut := cur.reserves(inputIsAssetA)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: empty reserves", ErrInsufficientLiquidity)
	}
	if !amountOut.Lt(reserveOut) {
		return SwapQuote{}, fmt.Errorf("%w: output %s drains reserve %s", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}

	remaining := new(uint256.Int).Sub(reserveOut, amountOut)
	needed, err := fixedpoint.MulDivRoundingUp(reserveIn, amountOut, remaining)
	if err != nil {
		return SwapQuote{}, err
	}
	keep := uint256.NewInt(fixedpoint.BasisPoints - cur.FeeBasisPoints)
	amountIn, err := fixedpoint.MulDivRoundingUp(needed, basisPoints, keep)
	if err != nil {
		return SwapQuote{}, err
	}
	fee, err := fixedpoint.MulDiv(amountIn, uint256.NewInt(cur.FeeBasisPoints), basisPoints)
	if err != nil {
		return SwapQuote{}, err
	}
	net, err := fixedpoint.Sub(amountIn, fee)
	if err != nil {
		return SwapQuote{}, err
	}

	impact := priceImpact(reserveIn, reserveOut, net, amountOut)
	return SwapQuote{
		InputIsAssetA:  inputIsAssetA,
		AmountIn:       *amountIn,
		AmountOut:      *amountOut,
		FeeAmount:      *fee,
		NetInput:       *net,
		PriceImpactBps: impact,
	}, nil
}

// priceImpact compares the output against the spot-price output for the
// same net input, in basis points. Fees are excluded. The spot-price output
// can exceed 256 bits, so the ratio is taken on big.Int.
func priceImpact(reserveIn, reserveOut, net, amountOut *uint256.Int) uint64 {
	ideal := new(big.Int).Mul(net.ToBig(), reserveOut.ToBig())
	ideal.Quo(ideal, reserveIn.ToBig())
	out := amountOut.ToBig()
	if ideal.Sign() == 0 || ideal.Cmp(out) <= 0 {
		return 0
	}
	impact := new(big.Int).Sub(ideal, out)
	impact.Mul(impact, big.NewInt(fixedpoint.BasisPoints))
	impact.Quo(impact, ideal)
	return impact.Uint64()
}

func applySwap(cur State, q SwapQuote) (State, error) {
	reserveIn, reserveOut := cur.reserves(q.InputIsAssetA)
	in, err := fixedpoint.Add(reserveIn, &q.AmountIn)
	if err != nil {
		return State{}, err
	}
	out, err := fixedpoint.Sub(reserveOut, &q.AmountOut)
	if err != nil {
		return State{}, err
	}
	return cur.withReserves(q.InputIsAssetA, in, out), nil
}
