// Package curve implements constant-product pricing over integer reserves.
//
// Every function is pure: amounts are derived only from the arguments, products
// are taken in 256-bit space before dividing, and rounding always favours the
// pool (deposits round up, withdrawals and swap outputs round down).
package curve

import (
	"math/big"

	"github.com/holiman/uint256"
)

// BpsDenominator is the fee denominator; a fee of 10000 bps is 100%.
const BpsDenominator = 10_000

// LPDecimals is the fixed decimal precision of the LP mint.
const LPDecimals = 6

// Amounts is a pair of X/Y token quantities.
type Amounts struct {
	X uint64
	Y uint64
}

// QuoteDeposit returns the X and Y a depositor must provide to mint lpAmount
// LP units. When lpSupply is zero the pool is empty and the caller's bounds
// seed the reserves at the ratio they chose.
func QuoteDeposit(reserveX, reserveY, lpSupply, lpAmount, maxX, maxY uint64) (Amounts, error) {
	if lpAmount == 0 {
		return Amounts{}, ErrInsufficientLiquidityMinted
	}
	if lpSupply == 0 {
		if maxX == 0 || maxY == 0 {
			return Amounts{}, ErrInsufficientLiquidityMinted
		}
		return Amounts{X: maxX, Y: maxY}, nil
	}

	x, err := mulDivUp(lpAmount, reserveX, lpSupply)
	if err != nil {
		return Amounts{}, err
	}
	y, err := mulDivUp(lpAmount, reserveY, lpSupply)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{X: x, Y: y}, nil
}

// QuoteWithdraw returns the X and Y paid out for burning lpAmount LP units.
func QuoteWithdraw(reserveX, reserveY, lpSupply, lpAmount uint64) (Amounts, error) {
	if lpSupply == 0 {
		return Amounts{}, ErrDivideByZero
	}
	if lpAmount > lpSupply {
		return Amounts{}, ErrInsufficientReserves
	}

	x, err := mulDivDown(lpAmount, reserveX, lpSupply)
	if err != nil {
		return Amounts{}, err
	}
	y, err := mulDivDown(lpAmount, reserveY, lpSupply)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{X: x, Y: y}, nil
}

// QuoteSwap prices amountIn against the curve after taking feeBps off the
// input. The result is strictly below reserveOut.
func QuoteSwap(reserveIn, reserveOut, amountIn uint64, feeBps uint16) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, ErrInvalidFee
	}
	if reserveOut == 0 {
		return 0, ErrInsufficientReserves
	}

	effectiveIn, err := EffectiveInput(amountIn, feeBps)
	if err != nil {
		return 0, err
	}

	denominator := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(effectiveIn))
	if denominator.IsZero() {
		return 0, ErrDivideByZero
	}
	out := new(uint256.Int).Mul(uint256.NewInt(reserveOut), uint256.NewInt(effectiveIn))
	out.Div(out, denominator)
	if !out.IsUint64() {
		return 0, ErrOverflow
	}

	amountOut := out.Uint64()
	if amountOut == 0 && amountIn > 0 {
		return 0, ErrInsufficientReserves
	}
	return amountOut, nil
}

// EffectiveInput is amountIn net of the fee, rounded down. The fee kept by
// the pool is amountIn minus this value.
func EffectiveInput(amountIn uint64, feeBps uint16) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, ErrInvalidFee
	}
	return mulDivDown(amountIn, uint64(BpsDenominator-feeBps), BpsDenominator)
}

// Invariant returns x*y without truncation.
func Invariant(x, y uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
}

// SpotPrice is reserveOut/reserveIn, for display only.
func SpotPrice(reserveIn, reserveOut uint64) (*big.Rat, error) {
	if reserveIn == 0 {
		return nil, ErrDivideByZero
	}
	num := new(big.Int).SetUint64(reserveOut)
	den := new(big.Int).SetUint64(reserveIn)
	return new(big.Rat).SetFrac(num, den), nil
}

func mulDivDown(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	z := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	z.Div(z, uint256.NewInt(d))
	if !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}

func mulDivUp(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	divisor := uint256.NewInt(d)
	quo := new(uint256.Int).Div(product, divisor)
	if !new(uint256.Int).Mod(product, divisor).IsZero() {
		quo.AddUint64(quo, 1)
	}
	if !quo.IsUint64() {
		return 0, ErrOverflow
	}
	return quo.Uint64(), nil
}
