package curve

import "errors"

var (
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInsufficientReserves        = errors.New("insufficient reserves")
	ErrDivideByZero                = errors.New("divide by zero")
	ErrOverflow                    = errors.New("amount overflows u64")
	ErrInvalidFee                  = errors.New("fee exceeds 10000 bps")
)
