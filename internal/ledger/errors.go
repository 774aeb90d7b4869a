package ledger

import "errors"

var (
	// ErrLedger marks every failure raised while applying an effect.
	ErrLedger = errors.New("ledger error")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnauthorized        = errors.New("authorization mismatch")
	ErrUnknownMint         = errors.New("unknown mint")
	ErrMintExists          = errors.New("mint already exists")
	ErrCustodyBound        = errors.New("custody already bound")
	ErrAssetMismatch       = errors.New("asset mismatch")
	ErrSupplyOverflow      = errors.New("balance or supply overflow")
	ErrReadOnly            = errors.New("write in read-only view")

	// ErrPoolNotFound is returned when no pool record exists at an address.
	ErrPoolNotFound = errors.New("pool not found")
)
