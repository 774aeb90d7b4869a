package amm

import (
	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/identity"
	"ammCore/internal/model"
)

// InitializeRequest creates a pool for an ordered token pair and seed.
type InitializeRequest struct {
	Caller identity.Caller
	TokenX common.Address
	TokenY common.Address
	Seed   uint64
	FeeBps uint16
}

func (r InitializeRequest) Digest() common.Hash {
	return identity.Digest(model.OpInitialize, r.TokenX.Bytes(), r.TokenY.Bytes(), identity.U64(r.Seed), identity.U64(uint64(r.FeeBps)))
}

// DepositRequest asks for LPAmount pool tokens, paying at most MaxX and
// MaxY, before Expiration (unix seconds).
type DepositRequest struct {
	Caller     identity.Caller
	Pool       common.Address
	LPAmount   uint64
	MaxX       uint64
	MaxY       uint64
	Expiration int64
}

func (r DepositRequest) Digest() common.Hash {
	return identity.Digest(model.OpDeposit, r.Pool.Bytes(), identity.U64(r.LPAmount), identity.U64(r.MaxX), identity.U64(r.MaxY), identity.I64(r.Expiration))
}

// WithdrawRequest burns LPAmount pool tokens for at least MinX and MinY.
type WithdrawRequest struct {
	Caller   identity.Caller
	Pool     common.Address
	LPAmount uint64
	MinX     uint64
	MinY     uint64
}

func (r WithdrawRequest) Digest() common.Hash {
	return identity.Digest(model.OpWithdraw, r.Pool.Bytes(), identity.U64(r.LPAmount), identity.U64(r.MinX), identity.U64(r.MinY))
}

// SwapRequest sells AmountIn of X (IsX) or Y for at least MinOut of the
// other side.
type SwapRequest struct {
	Caller   identity.Caller
	Pool     common.Address
	IsX      bool
	AmountIn uint64
	MinOut   uint64
}

func (r SwapRequest) Digest() common.Hash {
	return identity.Digest(model.OpSwap, r.Pool.Bytes(), identity.Bool(r.IsX), identity.U64(r.AmountIn), identity.U64(r.MinOut))
}

// LockRequest freezes or unfreezes a pool.
type LockRequest struct {
	Caller identity.Caller
	Pool   common.Address
	Locked bool
}

func (r LockRequest) Op() string {
	if r.Locked {
		return model.OpLock
	}
	return model.OpUnlock
}

func (r LockRequest) Digest() common.Hash {
	return identity.Digest(r.Op(), r.Pool.Bytes())
}
