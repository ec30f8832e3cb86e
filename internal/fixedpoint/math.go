// Package fixedpoint implements the unsigned 256-bit arithmetic used by the
// settlement core. Every helper either returns an exact result or an error;
// nothing wraps silently.
package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// BasisPoints is the denominator for fee and price-impact ratios.
const BasisPoints = 10_000

// Zero returns a fresh zero value.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// MulDiv returns floor(a*b/d). The product is carried in 512 bits so only a
// quotient that does not fit in 256 bits overflows.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// MulDivRoundingUp returns ceil(a*b/d).
func MulDivRoundingUp(a, b, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(a, b, d)
	if err != nil {
		return nil, err
	}
	if new(uint256.Int).MulMod(a, b, d).IsZero() {
		return z, nil
	}
	return Add(z, uint256.NewInt(1))
}

// SqrtProduct returns floor(sqrt(a*b)). The product is taken in 512 bits;
// the root always fits in 256.
func SqrtProduct(a, b *uint256.Int) *uint256.Int {
	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	root, _ := uint256.FromBig(product.Sqrt(product))
	return root
}

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// Sub returns a-b and fails on underflow.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// ParseAmount parses a base-10 unsigned integer. Empty input is zero.
func ParseAmount(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Zero(), nil
	}
	z, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	return z, nil
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(value string) *uint256.Int {
	z, err := ParseAmount(value)
	if err != nil {
		panic(err)
	}
	return z
}
