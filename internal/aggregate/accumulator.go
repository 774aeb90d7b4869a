package aggregate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress   common.Address
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	VolumeX       *big.Int
	VolumeY       *big.Int
	FeeX          *big.Int
	FeeY          *big.Int
	Reserves      model.Reserves
	LastTS        uint64
}

func NewAccumulator(receipt model.Receipt, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: receipt.Pool,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeX:     big.NewInt(0),
		VolumeY:     big.NewInt(0),
		FeeX:        big.NewInt(0),
		FeeY:        big.NewInt(0),
		Reserves:    receipt.Reserves,
		LastTS:      uint64(receipt.Timestamp),
	}
}

// AddReceipt folds one committed operation into the window. Receipts that do
// not move reserves are ignored; the aggregator never opens a window with one.
func (a *Accumulator) AddReceipt(receipt model.Receipt) {
	switch receipt.Op {
	case model.OpSwap:
		a.applySwap(receipt)
	case model.OpDeposit:
		a.DepositCount++
	case model.OpWithdraw:
		a.WithdrawCount++
	default:
		return
	}

	ts := uint64(receipt.Timestamp)
	if ts >= a.LastTS {
		a.LastTS = ts
		a.Reserves = receipt.Reserves
	}
}

func (a *Accumulator) applySwap(receipt model.Receipt) {
	in := new(big.Int).SetUint64(receipt.AmountIn)
	out := new(big.Int).SetUint64(receipt.AmountOut)
	fee := new(big.Int).SetUint64(receipt.Fee)

	if receipt.IsX {
		a.VolumeX.Add(a.VolumeX, in)
		a.VolumeY.Add(a.VolumeY, out)
		a.FeeX.Add(a.FeeX, fee)
	} else {
		a.VolumeY.Add(a.VolumeY, in)
		a.VolumeX.Add(a.VolumeX, out)
		a.FeeY.Add(a.FeeY, fee)
	}
	a.SwapCount++
}
