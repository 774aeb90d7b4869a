package model

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Operation names recorded in receipts.
const (
	OpInitialize = "initialize"
	OpDeposit    = "deposit"
	OpWithdraw   = "withdraw"
	OpSwap       = "swap"
	OpLock       = "lock"
	OpUnlock     = "unlock"
)

// Receipt is the record of one committed pool operation.
type Receipt struct {
	Op        string         `json:"op"`
	Pool      common.Address `json:"pool"`
	Caller    common.Address `json:"caller"`
	LPAmount  uint64         `json:"lp_amount,omitempty"`
	AmountX   uint64         `json:"amount_x,omitempty"`
	AmountY   uint64         `json:"amount_y,omitempty"`
	IsX       bool           `json:"is_x,omitempty"`
	AmountIn  uint64         `json:"amount_in,omitempty"`
	AmountOut uint64         `json:"amount_out,omitempty"`
	Fee       uint64         `json:"fee,omitempty"`
	Reserves  Reserves       `json:"reserves"`
	Timestamp int64          `json:"timestamp"`
}

// MarshalJSON ensures Receipt is encoded with stable field names.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type Alias Receipt
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a Receipt from JSON.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type Alias Receipt
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Receipt(a)
	return nil
}
