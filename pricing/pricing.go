// Package pricing implements the constant-product pricing formulas shared by
// every exchange instance. All functions are pure: they take explicit reserve
// snapshots and never touch pool state.
package pricing

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidReserve is returned when either reserve snapshot is zero.
	ErrInvalidReserve = errors.New("invalid reserve")
	// ErrInsufficientLiquidity is returned when an exact output cannot be
	// served from the output reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrArithmeticOverflow is returned when an intermediate product exceeds
	// 256 bits. Amounts never wrap silently.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// 0.3% trading fee: inputs count at 997/1000.
var (
	feeNumerator   = uint256.NewInt(997)
	feeDenominator = uint256.NewInt(1000)
)

// InputPrice returns the output amount bought with an exact input amount:
//
//	floor(amountIn*997 * reserveOut / (reserveIn*1000 + amountIn*997))
//
// Output rounds down, in the pool's favor.
func InputPrice(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInvalidReserve
	}
	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeNumerator)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	numerator, overflow := new(uint256.Int).MulOverflow(inWithFee, reserveOut)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDenominator)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	denominator, overflow = denominator.AddOverflow(denominator, inWithFee)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return numerator.Div(numerator, denominator), nil
}

// OutputPrice returns the input amount required to buy an exact output amount:
//
//	floor(reserveIn * amountOut * 1000 / ((reserveOut - amountOut) * 997)) + 1
//
// The +1 rounds the required input up, so the constant product never decreases
// from rounding.
func OutputPrice(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInvalidReserve
	}
	if !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn, amountOut)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	numerator, overflow = numerator.MulOverflow(numerator, feeDenominator)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	gap := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator, overflow := gap.MulOverflow(gap, feeNumerator)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	required := numerator.Div(numerator, denominator)
	required, overflow = required.AddOverflow(required, uint256.NewInt(1))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return required, nil
}
