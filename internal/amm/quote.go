package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/curve"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// PoolInfo returns a pool record with its live reserves.
func (s *Service) PoolInfo(ctx context.Context, address common.Address) (model.Pool, model.Reserves, error) {
	var (
		pool     model.Pool
		reserves model.Reserves
	)
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		pool, err = s.loadPool(ctx, tx, address)
		if err != nil {
			return err
		}
		reserves, err = readReserves(ctx, tx, pool)
		return err
	})
	if err != nil {
		return model.Pool{}, model.Reserves{}, err
	}
	return pool, reserves, nil
}

// QuoteDeposit prices a deposit against current reserves without applying it.
func (s *Service) QuoteDeposit(ctx context.Context, address common.Address, lpAmount, maxX, maxY uint64) (curve.Amounts, error) {
	_, reserves, err := s.PoolInfo(ctx, address)
	if err != nil {
		return curve.Amounts{}, err
	}
	amounts, err := curve.QuoteDeposit(reserves.X, reserves.Y, reserves.LPSupply, lpAmount, maxX, maxY)
	if err != nil {
		return curve.Amounts{}, fmt.Errorf("quote deposit: %w", err)
	}
	return amounts, nil
}

// QuoteWithdraw prices a withdrawal against current reserves without applying it.
func (s *Service) QuoteWithdraw(ctx context.Context, address common.Address, lpAmount uint64) (curve.Amounts, error) {
	_, reserves, err := s.PoolInfo(ctx, address)
	if err != nil {
		return curve.Amounts{}, err
	}
	amounts, err := curve.QuoteWithdraw(reserves.X, reserves.Y, reserves.LPSupply, lpAmount)
	if err != nil {
		return curve.Amounts{}, fmt.Errorf("quote withdraw: %w", err)
	}
	return amounts, nil
}

// QuoteSwap prices a swap against current reserves without applying it.
func (s *Service) QuoteSwap(ctx context.Context, address common.Address, isX bool, amountIn uint64) (uint64, error) {
	pool, reserves, err := s.PoolInfo(ctx, address)
	if err != nil {
		return 0, err
	}
	reserveIn, reserveOut := reserves.X, reserves.Y
	if !isX {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	out, err := curve.QuoteSwap(reserveIn, reserveOut, amountIn, pool.FeeBps)
	if err != nil {
		return 0, fmt.Errorf("quote swap: %w", err)
	}
	return out, nil
}
