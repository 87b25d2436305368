// Package safemath provides overflow-checked arithmetic for 16-bit product
// quantities and 256-bit word values. Every operation either returns the
// exact result or a fault.ArithmeticError; nothing wraps around silently.
package safemath

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/fault"
)

// Add16 returns a+b or fault.ErrOverflow.
func Add16(a, b uint16) (uint16, error) {
	c := a + b
	if c < a {
		return 0, fault.ErrOverflow
	}
	return c, nil
}

// Sub16 returns a-b or fault.ErrUnderflow when b > a.
func Sub16(a, b uint16) (uint16, error) {
	if b > a {
		return 0, fault.ErrUnderflow
	}
	return a - b, nil
}

// Mul16 returns a*b or fault.ErrOverflow.
func Mul16(a, b uint16) (uint16, error) {
	c := uint32(a) * uint32(b)
	if c > math.MaxUint16 {
		return 0, fault.ErrOverflow
	}
	return uint16(c), nil
}

// Add returns a fresh a+b or fault.ErrOverflow. Operands are not modified.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fault.ErrOverflow
	}
	return z, nil
}

// Sub returns a fresh a-b or fault.ErrUnderflow.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, fault.ErrUnderflow
	}
	return z, nil
}

// Mul returns a fresh a*b or fault.ErrOverflow.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fault.ErrOverflow
	}
	return z, nil
}

// Div returns the truncated quotient a/b or fault.ErrDivisionByZero.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, fault.ErrDivisionByZero
	}
	return new(uint256.Int).Div(a, b), nil
}
