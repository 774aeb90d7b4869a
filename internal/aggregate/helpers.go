package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
}

func computeFeeRates(feeX, feeY, reserveX, reserveY *big.Int) (*string, *string) {
	var feeRateX *string
	var feeRateY *string

	if rate := computeRateFromInt(feeX, reserveX); rate != nil {
		text := rate.FloatString(ratioScale)
		feeRateX = &text
	}
	if rate := computeRateFromInt(feeY, reserveY); rate != nil {
		text := rate.FloatString(ratioScale)
		feeRateY = &text
	}
	return feeRateX, feeRateY
}

func computeRateFromInt(fee, reserve *big.Int) *big.Rat {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(fee, reserve)
}

// computeAPR annualizes the window's fee yield. A constant-product pool holds
// equal value on both sides, so the yield on the whole pool is the mean of
// the per-side fee rates.
func computeAPR(feeX, feeY, reserveX, reserveY *big.Int, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	rateX := computeRateFromInt(feeX, reserveX)
	rateY := computeRateFromInt(feeY, reserveY)
	if rateX == nil && rateY == nil {
		return nil
	}

	total := new(big.Rat)
	if rateX != nil {
		total.Add(total, rateX)
	}
	if rateY != nil {
		total.Add(total, rateY)
	}
	total.Quo(total, big.NewRat(2, 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(total, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
