package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PoolWindowMetrics stores aggregated activity for one pool window. Amounts
// are decimal strings scaled by token decimals.
type PoolWindowMetrics struct {
	PoolAddress    common.Address `json:"pool"`
	WindowSizeSecs int64          `json:"window_size_seconds"`
	WindowStart    time.Time      `json:"window_start"`
	WindowEnd      time.Time      `json:"window_end"`
	SwapCount      uint64         `json:"swap_count"`
	DepositCount   uint64         `json:"deposit_count"`
	WithdrawCount  uint64         `json:"withdraw_count"`
	VolumeX        string         `json:"volume_x"`
	VolumeY        string         `json:"volume_y"`
	FeeX           string         `json:"fee_x"`
	FeeY           string         `json:"fee_y"`
	FeeRateX       *string        `json:"fee_rate_x,omitempty"`
	FeeRateY       *string        `json:"fee_rate_y,omitempty"`
	ReserveX       string         `json:"reserve_x"`
	ReserveY       string         `json:"reserve_y"`
	APR            *string        `json:"apr,omitempty"`
}
