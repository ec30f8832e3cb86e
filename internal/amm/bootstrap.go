package amm

import (
	"fmt"

	"github.com/holiman/uint256"

	"liquidityCore/internal/fixedpoint"
)

// Initialize seeds an uninitialized pool. The liquidity supply starts at
// sqrt(initialA*initialB). This is the only transition that skips the
// invariant check; it establishes the baseline k.
func Initialize(pool *Pool, initialA, initialB *uint256.Int, feeBasisPoints uint64) (State, error) {
	return initialize(pool, initialA, initialB, feeBasisPoints, nil)
}

func initialize(pool *Pool, initialA, initialB *uint256.Int, feeBasisPoints uint64, settle func(next State) error) (State, error) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if pool.active {
		return State{}, ErrAlreadyInitialized
	}

	next, err := bootstrapState(initialA, initialB, feeBasisPoints)
	if err != nil {
		return State{}, err
	}
	if settle != nil {
		if err := settle(next); err != nil {
			return State{}, err
		}
	}
	pool.state = next
	pool.active = true
	return next, nil
}

func bootstrapState(initialA, initialB *uint256.Int, feeBasisPoints uint64) (State, error) {
	if initialA.IsZero() || initialB.IsZero() {
		return State{}, fmt.Errorf("%w: reserves must be positive", ErrInvalidInitialReserves)
	}
	if feeBasisPoints >= fixedpoint.BasisPoints {
		return State{}, fmt.Errorf("%w: fee %d bps out of range", ErrInvalidInitialReserves, feeBasisPoints)
	}
	liquidity := fixedpoint.SqrtProduct(initialA, initialB)
	if liquidity.IsZero() {
		return State{}, ErrDegenerateLiquidity
	}
	return State{
		ReserveA:       *initialA,
		ReserveB:       *initialB,
		TotalLiquidity: *liquidity,
		FeeBasisPoints: feeBasisPoints,
	}, nil
}
