package amm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ammCore/internal/curve"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// Swap sells req.AmountIn of one reserve token for the other at the
// constant-product price net of the pool fee.
func (s *Service) Swap(ctx context.Context, req SwapRequest) (model.Receipt, error) {
	now := s.clock.Now()
	if err := s.verify(req.Caller, req.Digest()); err != nil {
		s.rejected(model.OpSwap, req, err)
		return model.Receipt{}, err
	}

	var receipt model.Receipt
	err := s.store.Atomic(ctx, req.Pool, func(tx ledger.Tx) error {
		pool, err := s.loadPool(ctx, tx, req.Pool)
		if err != nil {
			return err
		}
		if err := assertUnlocked(pool); err != nil {
			return err
		}
		if req.AmountIn == 0 {
			return fmt.Errorf("%w: amount in is zero", ErrInvalidAmount)
		}

		reserves, err := readReserves(ctx, tx, pool)
		if err != nil {
			return err
		}
		reserveIn, reserveOut := reserves.X, reserves.Y
		vaultIn, vaultOut := pool.VaultAccountX(), pool.VaultAccountY()
		if !req.IsX {
			reserveIn, reserveOut = reserves.Y, reserves.X
			vaultIn, vaultOut = vaultOut, vaultIn
		}

		amountOut, err := curve.QuoteSwap(reserveIn, reserveOut, req.AmountIn, pool.FeeBps)
		if err != nil {
			return fmt.Errorf("quote swap: %w", err)
		}
		effectiveIn, err := curve.EffectiveInput(req.AmountIn, pool.FeeBps)
		if err != nil {
			return fmt.Errorf("quote swap: %w", err)
		}
		if amountOut < req.MinOut {
			return fmt.Errorf("%w: out %d, min %d", ErrSlippageExceeded, amountOut, req.MinOut)
		}

		caller := req.Caller.Address
		if err := tx.Transfer(ctx, model.Account{Owner: caller, Asset: vaultIn.Asset}, vaultIn, req.AmountIn, caller); err != nil {
			return fmt.Errorf("transfer in: %w", err)
		}
		if err := tx.Transfer(ctx, vaultOut, model.Account{Owner: caller, Asset: vaultOut.Asset}, amountOut, pool.Address); err != nil {
			return fmt.Errorf("transfer out: %w", err)
		}

		after := model.Reserves{X: reserves.X + req.AmountIn, Y: reserves.Y - amountOut, LPSupply: reserves.LPSupply}
		if !req.IsX {
			after.X, after.Y = reserves.X-amountOut, reserves.Y+req.AmountIn
		}
		receipt = model.Receipt{
			Op:        model.OpSwap,
			Pool:      pool.Address,
			Caller:    caller,
			IsX:       req.IsX,
			AmountIn:  req.AmountIn,
			AmountOut: amountOut,
			Fee:       req.AmountIn - effectiveIn,
			Reserves:  after,
			Timestamp: now.Unix(),
		}
		return nil
	})
	if err != nil {
		s.rejected(model.OpSwap, req, err)
		return model.Receipt{}, err
	}

	s.logger.Info("swap",
		zap.String("pool", receipt.Pool.Hex()),
		zap.String("caller", receipt.Caller.Hex()),
		zap.Bool("is_x", receipt.IsX),
		zap.Uint64("amount_in", receipt.AmountIn),
		zap.Uint64("amount_out", receipt.AmountOut),
	)
	s.record(receipt)
	return receipt, nil
}
