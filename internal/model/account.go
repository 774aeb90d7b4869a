package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Account identifies a balance: one owner holding one asset.
type Account struct {
	Owner common.Address `json:"owner"`
	Asset common.Address `json:"asset"`
}

func (a Account) String() string {
	return fmt.Sprintf("%s/%s", a.Owner.Hex(), a.Asset.Hex())
}

// Mint describes a fungible asset issued by the ledger.
type Mint struct {
	Address   common.Address `json:"address"`
	Authority common.Address `json:"authority"`
	Decimals  uint8          `json:"decimals"`
	Supply    uint64         `json:"supply"`
}
