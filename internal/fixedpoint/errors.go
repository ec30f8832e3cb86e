package fixedpoint

import "errors"

var (
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrInvalidAmount      = errors.New("invalid amount")
)
