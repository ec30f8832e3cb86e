package amm

import (
	"errors"

	"liquidityCore/internal/fixedpoint"
)

var (
	ErrInvalidInitialReserves = errors.New("invalid initial reserves")
	ErrDegenerateLiquidity    = errors.New("initial liquidity evaluates to zero")
	ErrAlreadyInitialized     = errors.New("pool already initialized")
	ErrNotInitialized         = errors.New("pool not initialized")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
	ErrZeroLiquidityMinted    = errors.New("deposit mints zero liquidity")
	ErrZeroWithdrawal         = errors.New("withdrawal returns zero of both assets")
	ErrSlippageExceeded       = errors.New("slippage limit exceeded")

	// ErrInvariantViolation means a computed transition broke the
	// constant-product invariant. It is never caused by caller input.
	ErrInvariantViolation = errors.New("constant product invariant violated")

	ErrPoolNotFound    = errors.New("pool not found")
	ErrIdenticalTokens = errors.New("token A and token B are identical")
	ErrTokenNotInPool  = errors.New("token is not part of the pool")

	ErrArithmeticOverflow = fixedpoint.ErrArithmeticOverflow
	ErrDivisionByZero     = fixedpoint.ErrDivisionByZero
)

// IsInternal reports whether err signals a defect in the core rather than a
// rejected request.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
