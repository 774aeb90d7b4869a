package model

import "math/big"

// FormatAmount renders a raw integer amount with the given decimal places.
func FormatAmount(value uint64, decimals uint8) string {
	raw := new(big.Int).SetUint64(value)
	if decimals == 0 {
		return raw.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(raw, denom).FloatString(int(decimals))
}
