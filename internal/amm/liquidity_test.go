package amm

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestAddLiquidity(t *testing.T) {
	tests := []struct {
		name                 string
		a, b                 uint64
		minted, usedA, usedB uint64
	}{
		{"balanced", 100, 400, 200, 100, 400},
		{"excess B is left", 100, 1000, 200, 100, 400},
		{"excess A is left", 500, 400, 200, 100, 400},
		{"consumed amounts round up", 3, 7, 3, 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newTestPool(t, 1000, 4000, 30)
			res, err := AddLiquidity(pool, u(tt.a), u(tt.b))
			require.NoError(t, err)
			require.Equal(t, tt.minted, res.Minted.Uint64())
			require.Equal(t, tt.usedA, res.ActualA.Uint64())
			require.Equal(t, tt.usedB, res.ActualB.Uint64())
			requireState(t, pool, 1000+tt.usedA, 4000+tt.usedB, 2000+tt.minted)
		})
	}
}

func TestAddLiquidityZeroMint(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	_, err := AddLiquidity(pool, u(0), u(400))
	require.ErrorIs(t, err, ErrZeroLiquidityMinted)
	_, err = AddLiquidity(pool, u(1), u(1))
	require.ErrorIs(t, err, ErrZeroLiquidityMinted)
	requireState(t, pool, 1000, 4000, 2000)
}

func TestRemoveLiquidity(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	res, err := RemoveLiquidity(pool, u(500))
	require.NoError(t, err)
	require.Equal(t, uint64(250), res.AmountA.Uint64())
	require.Equal(t, uint64(1000), res.AmountB.Uint64())
	require.Equal(t, uint64(500), res.Burned.Uint64())
	requireState(t, pool, 750, 3000, 1500)
}

func TestRemoveLiquidityRejects(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)

	_, err := RemoveLiquidity(pool, u(0))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, err = RemoveLiquidity(pool, u(2001))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	requireState(t, pool, 1000, 4000, 2000)
}

func TestPlanWithdrawZero(t *testing.T) {
	cur := State{ReserveA: *u(1), ReserveB: *u(1), TotalLiquidity: *u(10)}
	_, err := planWithdraw(cur, u(1))
	require.ErrorIs(t, err, ErrZeroWithdrawal)
}

func TestDrainedPoolReseeds(t *testing.T) {
	pool := newTestPool(t, 1000, 4000, 30)
	_, err := ExecuteSwap(pool, true, u(100), u(0))
	require.NoError(t, err)

	res, err := RemoveLiquidity(pool, u(2000))
	require.NoError(t, err)
	require.Equal(t, uint64(1100), res.AmountA.Uint64())
	require.Equal(t, uint64(3637), res.AmountB.Uint64())
	requireState(t, pool, 0, 0, 0)

	_, err = ExecuteSwap(pool, true, u(10), u(0))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	res2, err := AddLiquidity(pool, u(10), u(40))
	require.NoError(t, err)
	require.Equal(t, uint64(20), res2.Minted.Uint64())
	requireState(t, pool, 10, 40, 20)
	require.Equal(t, uint64(30), pool.FeeBasisPoints())
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	f := func(a, b uint32, depositA, depositB uint32) bool {
		pool, err := NewPool(tokenX, tokenY)
		if err != nil {
			return false
		}
		if _, err := Initialize(pool, u(uint64(a)+1), u(uint64(b)+1), 30); err != nil {
			return false
		}
		added, err := AddLiquidity(pool, u(uint64(depositA)), u(uint64(depositB)))
		if err != nil {
			return !IsInternal(err)
		}
		if added.ActualA.Uint64() > uint64(depositA) || added.ActualB.Uint64() > uint64(depositB) {
			return false
		}
		removed, err := RemoveLiquidity(pool, &added.Minted)
		if err != nil {
			return !IsInternal(err)
		}
		return !removed.AmountA.Gt(&added.ActualA) && !removed.AmountB.Gt(&added.ActualB)
	}
	require.NoError(t, quick.Check(f, nil))
}
