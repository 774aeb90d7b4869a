package amm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ammCore/internal/curve"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// Deposit adds liquidity, minting exactly req.LPAmount pool tokens to the
// caller in exchange for the quoted X and Y amounts.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (model.Receipt, error) {
	now := s.clock.Now()
	if err := s.verify(req.Caller, req.Digest()); err != nil {
		s.rejected(model.OpDeposit, req, err)
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
		if now.Unix() > req.Expiration {
			return fmt.Errorf("%w: now %d, expiration %d", ErrExpired, now.Unix(), req.Expiration)
		}
		if req.LPAmount == 0 {
			return fmt.Errorf("%w: lp amount is zero", ErrInvalidAmount)
		}

		reserves, err := readReserves(ctx, tx, pool)
		if err != nil {
			return err
		}
		amounts, err := curve.QuoteDeposit(reserves.X, reserves.Y, reserves.LPSupply, req.LPAmount, req.MaxX, req.MaxY)
		if err != nil {
			return fmt.Errorf("quote deposit: %w", err)
		}
		if amounts.X > req.MaxX || amounts.Y > req.MaxY {
			return fmt.Errorf("%w: need (%d, %d), max (%d, %d)", ErrSlippageExceeded, amounts.X, amounts.Y, req.MaxX, req.MaxY)
		}

		caller := req.Caller.Address
		if err := tx.Transfer(ctx, model.Account{Owner: caller, Asset: pool.TokenX}, pool.VaultAccountX(), amounts.X, caller); err != nil {
			return fmt.Errorf("transfer x to vault: %w", err)
		}
		if err := tx.Transfer(ctx, model.Account{Owner: caller, Asset: pool.TokenY}, pool.VaultAccountY(), amounts.Y, caller); err != nil {
			return fmt.Errorf("transfer y to vault: %w", err)
		}
		if err := tx.Mint(ctx, pool.LPMint, caller, req.LPAmount, pool.Address); err != nil {
			return fmt.Errorf("mint lp: %w", err)
		}

		receipt = model.Receipt{
			Op:       model.OpDeposit,
			Pool:     pool.Address,
			Caller:   caller,
			LPAmount: req.LPAmount,
			AmountX:  amounts.X,
			AmountY:  amounts.Y,
			Reserves: model.Reserves{
				X:        reserves.X + amounts.X,
				Y:        reserves.Y + amounts.Y,
				LPSupply: reserves.LPSupply + req.LPAmount,
			},
			Timestamp: now.Unix(),
		}
		return nil
	})
	if err != nil {
		s.rejected(model.OpDeposit, req, err)
		return model.Receipt{}, err
	}

	s.logger.Info("deposit",
		zap.String("pool", receipt.Pool.Hex()),
		zap.String("caller", receipt.Caller.Hex()),
		zap.Uint64("lp_amount", receipt.LPAmount),
		zap.Uint64("amount_x", receipt.AmountX),
		zap.Uint64("amount_y", receipt.AmountY),
	)
	s.record(receipt)
	return receipt, nil
}

// Withdraw burns req.LPAmount pool tokens and pays out the caller's share of
// both reserves, rounded down.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (model.Receipt, error) {
	now := s.clock.Now()
	if err := s.verify(req.Caller, req.Digest()); err != nil {
		s.rejected(model.OpWithdraw, req, err)
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
		if req.LPAmount == 0 {
			return fmt.Errorf("%w: lp amount is zero", ErrInvalidAmount)
		}
		if req.MinX == 0 && req.MinY == 0 {
			return fmt.Errorf("%w: at least one minimum must be set", ErrInvalidAmount)
		}

		reserves, err := readReserves(ctx, tx, pool)
		if err != nil {
			return err
		}
		amounts, err := curve.QuoteWithdraw(reserves.X, reserves.Y, reserves.LPSupply, req.LPAmount)
		if err != nil {
			return fmt.Errorf("quote withdraw: %w", err)
		}
		if amounts.X < req.MinX || amounts.Y < req.MinY {
			return fmt.Errorf("%w: got (%d, %d), min (%d, %d)", ErrSlippageExceeded, amounts.X, amounts.Y, req.MinX, req.MinY)
		}

		caller := req.Caller.Address
		if err := tx.Transfer(ctx, pool.VaultAccountX(), model.Account{Owner: caller, Asset: pool.TokenX}, amounts.X, pool.Address); err != nil {
			return fmt.Errorf("transfer x from vault: %w", err)
		}
		if err := tx.Transfer(ctx, pool.VaultAccountY(), model.Account{Owner: caller, Asset: pool.TokenY}, amounts.Y, pool.Address); err != nil {
			return fmt.Errorf("transfer y from vault: %w", err)
		}
		if err := tx.Burn(ctx, pool.LPMint, caller, req.LPAmount, caller); err != nil {
			return fmt.Errorf("burn lp: %w", err)
		}

		receipt = model.Receipt{
			Op:       model.OpWithdraw,
			Pool:     pool.Address,
			Caller:   caller,
			LPAmount: req.LPAmount,
			AmountX:  amounts.X,
			AmountY:  amounts.Y,
			Reserves: model.Reserves{
				X:        reserves.X - amounts.X,
				Y:        reserves.Y - amounts.Y,
				LPSupply: reserves.LPSupply - req.LPAmount,
			},
			Timestamp: now.Unix(),
		}
		return nil
	})
	if err != nil {
		s.rejected(model.OpWithdraw, req, err)
		return model.Receipt{}, err
	}

	s.logger.Info("withdraw",
		zap.String("pool", receipt.Pool.Hex()),
		zap.String("caller", receipt.Caller.Hex()),
		zap.Uint64("lp_amount", receipt.LPAmount),
		zap.Uint64("amount_x", receipt.AmountX),
		zap.Uint64("amount_y", receipt.AmountY),
	)
	s.record(receipt)
	return receipt, nil
}
