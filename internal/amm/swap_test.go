package amm

import (
	"errors"
	"math/big"
	"testing"
	"testing/quick"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"liquidityCore/internal/fixedpoint"
)

func TestQuoteExactInput(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	q, err := QuoteExactInput(pool, true, u(100))
	require.NoError(t, err)
	require.True(t, q.InputIsAssetA)
	require.Equal(t, uint64(100), q.AmountIn.Uint64())
	require.Equal(t, uint64(0), q.FeeAmount.Uint64())
	require.Equal(t, uint64(100), q.NetInput.Uint64())
	require.Equal(t, uint64(363), q.AmountOut.Uint64())
	require.Equal(t, uint64(925), q.PriceImpactBps)

	// Quoting does not move the pool.
	requireState(t, pool, 1000, 4000, 2000)
}

func TestQuoteExactInputChargesFee(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 1_000_000, 30)

	q, err := QuoteExactInput(pool, true, u(10_000))
	require.NoError(t, err)
	require.Equal(t, uint64(30), q.FeeAmount.Uint64())
	require.Equal(t, uint64(9970), q.NetInput.Uint64())
	require.Equal(t, uint64(9871), q.AmountOut.Uint64())
}

func TestQuoteExactInputRejects(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	_, err := QuoteExactInput(pool, true, u(0))
	require.ErrorIs(t, err, ErrInvalidAmount)

	// 1 unit of B buys less than 1 unit of A.
	_, err = QuoteExactInput(pool, false, u(1))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestExecuteSwap(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	q, err := ExecuteSwap(pool, true, u(100), u(363))
	require.NoError(t, err)
	require.Equal(t, uint64(363), q.AmountOut.Uint64())
	requireState(t, pool, 1100, 3637, 2000)
}

func TestExecuteSwapAssetB(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	q, err := ExecuteSwap(pool, false, u(400), u(0))
	require.NoError(t, err)
	require.Equal(t, uint64(1), q.FeeAmount.Uint64())
	require.Equal(t, uint64(90), q.AmountOut.Uint64())
	requireState(t, pool, 910, 4400, 2000)
}

func TestExecuteSwapSlippage(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	_, err := ExecuteSwap(pool, true, u(100), u(364))
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.False(t, IsInternal(err))
	requireState(t, pool, 1000, 4000, 2000)
}

func TestExecuteSwapNeverDrainsReserve(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)
	huge := fixedpoint.MustAmount("1000000000000000000000000000000")

	q, err := ExecuteSwap(pool, true, huge, u(0))
	require.NoError(t, err)
	require.Equal(t, uint64(3999), q.AmountOut.Uint64())
	require.Equal(t, uint64(1), pool.ReserveB().Uint64())

	before := pool.Snapshot()
	_, err = ExecuteSwap(pool, true, huge, u(0))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	require.Equal(t, before, pool.Snapshot())

	_, err = QuoteExactOutput(pool, true, u(1))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestExactOutput(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	q, err := QuoteExactOutput(pool, true, u(363))
	require.NoError(t, err)
	require.Equal(t, uint64(101), q.AmountIn.Uint64())
	require.Equal(t, uint64(363), q.AmountOut.Uint64())

	_, err = ExecuteSwapExactOutput(pool, true, u(363), u(100))
	require.ErrorIs(t, err, ErrSlippageExceeded)
	requireState(t, pool, 1000, 4000, 2000)

	_, err = ExecuteSwapExactOutput(pool, true, u(363), u(101))
	require.NoError(t, err)
	requireState(t, pool, 1101, 3637, 2000)
}

func TestExactOutputRejects(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	_, err := QuoteExactOutput(pool, true, u(0))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = QuoteExactOutput(pool, true, u(4000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestExactOutputCoversExactInputQuote(t *testing.T) {
	f := func(a, b uint32, out uint16, fee uint16) bool {
		pool, err := NewPool(tokenX, tokenY)
		if err != nil {
			return false
		}
		if _, err := Initialize(pool, u(uint64(a)+1), u(uint64(b)+1), uint64(fee)%1000); err != nil {
			return false
		}
		q, err := QuoteExactOutput(pool, true, u(uint64(out)+1))
		if err != nil {
			return true
		}
		in, err := QuoteExactInput(pool, true, &q.AmountIn)
		if err != nil {
			return false
		}
		return !in.AmountOut.Lt(&q.AmountOut)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestSwapsNeverShrinkK(t *testing.T) {
	f := func(a, b uint32, fee uint16, amounts []uint32, directions []bool) bool {
		pool, err := NewPool(tokenX, tokenY)
		if err != nil {
			return false
		}
		if _, err := Initialize(pool, u(uint64(a)+1), u(uint64(b)+1), uint64(fee)%10_000); err != nil {
			return false
		}
		for i, amount := range amounts {
			isA := i < len(directions) && directions[i]
			before := pool.Snapshot().K()
			q, err := ExecuteSwap(pool, isA, u(uint64(amount)), u(0))
			if IsInternal(err) {
				return false
			}
			after := pool.Snapshot().K()
			if err != nil {
				if after.Cmp(before) != 0 {
					return false
				}
				continue
			}
			cmp := after.Cmp(before)
			if cmp < 0 || (!q.FeeAmount.IsZero() && cmp == 0) {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestRoundTripSwapIsNotProfitable(t *testing.T) {
	f := func(a, b uint32, fee uint16, amount uint32) bool {
		pool, err := NewPool(tokenX, tokenY)
		if err != nil {
			return false
		}
		if _, err := Initialize(pool, u(uint64(a)+1), u(uint64(b)+1), uint64(fee)%10_000); err != nil {
			return false
		}
		in := u(uint64(amount) + 1)
		there, err := ExecuteSwap(pool, true, in, u(0))
		if err != nil {
			return true
		}
		back, err := ExecuteSwap(pool, false, &there.AmountOut, u(0))
		if err != nil {
			return true
		}
		return !back.AmountOut.Gt(in)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestPriceImpactGrowsWithSize(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 1_000_000, 30)
	var last uint64
	for _, in := range []uint64{1_000, 10_000, 100_000, 1_000_000} {
		q, err := QuoteExactInput(pool, true, uint256.NewInt(in))
		require.NoError(t, err)
		require.GreaterOrEqual(t, q.PriceImpactBps, last)
		last = q.PriceImpactBps
	}
	require.Greater(t, last, uint64(4000))
}

func TestPriceImpactWideSpotOutput(t *testing.T) {
	pool, err := NewPool(tokenX, tokenY)
	require.NoError(t, err)
	reserveB := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	_, err = Initialize(pool, u(1), reserveB, 0)
	require.NoError(t, err)

	// The spot-price output 4*2^255 does not fit in 256 bits; the curve
	// output floor(2^257/5) does.
	q, err := QuoteExactInput(pool, true, u(4))
	require.NoError(t, err)
	want := new(big.Int).Lsh(big.NewInt(1), 257)
	want.Quo(want, big.NewInt(5))
	require.Zero(t, want.Cmp(q.AmountOut.ToBig()))
	require.Equal(t, uint64(8000), q.PriceImpactBps)

	executed, err := ExecuteSwap(pool, true, u(4), u(1))
	require.NoError(t, err)
	require.Equal(t, q, executed)
}

func TestFeeBearingSwapPaysBelowSpot(t *testing.T) {
	f := func(a, b uint32, fee uint16, amount uint32) bool {
		pool, err := NewPool(tokenX, tokenY)
		if err != nil {
			return false
		}
		feeBps := uint64(fee)%(fixedpoint.BasisPoints-1) + 1
		if _, err := Initialize(pool, u(uint64(a)+1), u(uint64(b)+1), feeBps); err != nil {
			return false
		}
		in := u(uint64(amount) + 1)
		q, err := QuoteExactInput(pool, true, in)
		if err != nil {
			return errors.Is(err, ErrInsufficientLiquidity)
		}
		// amountOut*reserveIn < amountIn*reserveOut, compared exactly.
		state := pool.Snapshot()
		got := new(big.Int).Mul(q.AmountOut.ToBig(), state.ReserveA.ToBig())
		spot := new(big.Int).Mul(in.ToBig(), state.ReserveB.ToBig())
		return got.Cmp(spot) < 0
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestFlooredFeeCanLeaveKFlat(t *testing.T) {
	pool := newTestPool(t, 100, 200, 30)
	before := pool.Snapshot().K()

	// 100*30/10000 floors to a zero fee and 200*100/200 divides exactly.
	q, err := ExecuteSwap(pool, true, u(100), u(0))
	require.NoError(t, err)
	require.True(t, q.FeeAmount.IsZero())
	require.Equal(t, uint64(100), q.AmountOut.Uint64())
	requireState(t, pool, 200, 100, 141)
	require.Zero(t, before.Cmp(pool.Snapshot().K()))
}
