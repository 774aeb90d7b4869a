package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/amm"
	"ammCore/internal/config"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInit(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, true)
	if err != nil {
		return err
	}
	defer e.Close()

	req := amm.InitializeRequest{TokenX: cfg.TokenX, TokenY: cfg.TokenY, Seed: cfg.Seed, FeeBps: cfg.FeeBps}
	if req.Caller, err = e.sign(req.Digest()); err != nil {
		return err
	}
	pool, err := e.service.Initialize(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]common.Address{"pool": pool})
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDeposit(cfgFile, cmd.Flags(), timeNow())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, true)
	if err != nil {
		return err
	}
	defer e.Close()

	req := amm.DepositRequest{
		Pool:       cfg.Pool,
		LPAmount:   cfg.LPAmount,
		MaxX:       cfg.MaxX,
		MaxY:       cfg.MaxY,
		Expiration: cfg.Expiration,
	}
	if req.Caller, err = e.sign(req.Digest()); err != nil {
		return err
	}
	receipt, err := e.service.Deposit(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd, receipt)
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithdraw(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, true)
	if err != nil {
		return err
	}
	defer e.Close()

	req := amm.WithdrawRequest{Pool: cfg.Pool, LPAmount: cfg.LPAmount, MinX: cfg.MinX, MinY: cfg.MinY}
	if req.Caller, err = e.sign(req.Digest()); err != nil {
		return err
	}
	receipt, err := e.service.Withdraw(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd, receipt)
}

func runSwap(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSwap(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, true)
	if err != nil {
		return err
	}
	defer e.Close()

	req := amm.SwapRequest{Pool: cfg.Pool, IsX: cfg.IsX, AmountIn: cfg.AmountIn, MinOut: cfg.MinOut}
	if req.Caller, err = e.sign(req.Digest()); err != nil {
		return err
	}
	receipt, err := e.service.Swap(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd, receipt)
}

func runSetLocked(locked bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadPool(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		e, err := openEnv(ctx, cfg.Config, true)
		if err != nil {
			return err
		}
		defer e.Close()

		req := amm.LockRequest{Pool: cfg.Pool, Locked: locked}
		if req.Caller, err = e.sign(req.Digest()); err != nil {
			return err
		}
		pool, err := e.service.SetLocked(ctx, req)
		if err != nil {
			return err
		}
		e.logger.Debug("pool lock updated", zap.String("pool", pool.Address.Hex()), zap.Bool("locked", pool.Locked))
		return printJSON(cmd, pool)
	}
}
