package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is the persisted record of a single constant-product pool.
type Pool struct {
	Address    common.Address `json:"address"`
	TokenX     common.Address `json:"token_x"`
	TokenY     common.Address `json:"token_y"`
	Seed       uint64         `json:"seed"`
	FeeBps     uint16         `json:"fee_bps"`
	Locked     bool           `json:"locked"`
	LPDecimals uint8          `json:"lp_decimals"`
	LPMint     common.Address `json:"lp_mint"`
	VaultX     common.Address `json:"vault_x"`
	VaultY     common.Address `json:"vault_y"`
	Authority  common.Address `json:"authority"`
	CreatedAt  time.Time      `json:"created_at"`
}

// VaultAccountX is the token account holding the X reserve.
func (p Pool) VaultAccountX() Account {
	return Account{Owner: p.VaultX, Asset: p.TokenX}
}

// VaultAccountY is the token account holding the Y reserve.
func (p Pool) VaultAccountY() Account {
	return Account{Owner: p.VaultY, Asset: p.TokenY}
}

// Reserves are the live vault balances and LP supply of a pool.
type Reserves struct {
	X        uint64 `json:"x"`
	Y        uint64 `json:"y"`
	LPSupply uint64 `json:"lp_supply"`
}
