package aggregate

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// Ledger resolves the pool records and token decimals a report needs.
type Ledger interface {
	Pool(ctx context.Context, address common.Address) (model.Pool, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// TokenDecimalsCache caches token decimals by address.
type TokenDecimalsCache struct {
	mu   sync.RWMutex
	data map[common.Address]uint8
}

func NewTokenDecimalsCache() *TokenDecimalsCache {
	return &TokenDecimalsCache{data: make(map[common.Address]uint8)}
}

func (c *TokenDecimalsCache) Get(address common.Address) (uint8, bool) {
	c.mu.RLock()
	decimals, ok := c.data[address]
	c.mu.RUnlock()
	return decimals, ok
}

func (c *TokenDecimalsCache) Set(address common.Address, decimals uint8) {
	c.mu.Lock()
	c.data[address] = decimals
	c.mu.Unlock()
}

// StoreLedger reads pools and mints from a ledger.Store.
type StoreLedger struct {
	Store ledger.Store
}

func (l StoreLedger) Pool(ctx context.Context, address common.Address) (model.Pool, error) {
	var pool model.Pool
	err := l.Store.View(ctx, func(tx ledger.Tx) error {
		var err error
		pool, err = tx.GetPool(ctx, address)
		return err
	})
	return pool, err
}

func (l StoreLedger) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	var decimals uint8
	err := l.Store.View(ctx, func(tx ledger.Tx) error {
		mint, err := tx.GetMint(ctx, token)
		if err != nil {
			return err
		}
		decimals = mint.Decimals
		return nil
	})
	return decimals, err
}
