package amm

import (
	"errors"

	"ammCore/internal/curve"
	"ammCore/internal/ledger"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrPoolLocked       = errors.New("pool is locked")
	ErrExpired          = errors.New("deposit expired")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrAddressMismatch  = errors.New("custody address mismatch")
	ErrUnauthorized     = errors.New("unauthorized caller")
	ErrInvalidTokenPair = errors.New("token pair must be distinct and ordered")
	ErrPoolExists       = errors.New("pool already exists")
)

// Curve and ledger failures keep their own identity so errors.Is works
// against either package's sentinels.
var (
	ErrInsufficientLiquidityMinted = curve.ErrInsufficientLiquidityMinted
	ErrInsufficientReserves        = curve.ErrInsufficientReserves
	ErrDivideByZero                = curve.ErrDivideByZero
	ErrOverflow                    = curve.ErrOverflow
	ErrInvalidFee                  = curve.ErrInvalidFee
	ErrLedger                      = ledger.ErrLedger
	ErrPoolNotFound                = ledger.ErrPoolNotFound
)
