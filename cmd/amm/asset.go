package main

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/config"
	"ammCore/internal/ledger"
)

var timeNow = time.Now

func runAssetCreate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAsset(cfgFile, cmd.Flags())
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

	authority := e.address()
	for _, asset := range cfg.Assets {
		err := e.store.Atomic(ctx, asset, func(tx ledger.Tx) error {
			return tx.CreateMint(ctx, asset, authority, cfg.Decimals)
		})
		if err != nil {
			return fmt.Errorf("create asset %s: %w", asset.Hex(), err)
		}
		e.logger.Info("asset created", zap.String("asset", asset.Hex()), zap.String("authority", authority.Hex()), zap.Uint8("decimals", cfg.Decimals))
	}
	return printJSON(cmd, map[string]interface{}{"authority": authority, "assets": cfg.Assets})
}

func runAssetMint(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAsset(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(cfg.Assets) != 1 {
		return fmt.Errorf("mint takes exactly one asset")
	}
	if cfg.Amount == 0 {
		return fmt.Errorf("amount is required")
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, true)
	if err != nil {
		return err
	}
	defer e.Close()

	asset := cfg.Assets[0]
	to := cfg.To
	if to == (common.Address{}) {
		to = e.address()
	}
	err = e.store.Atomic(ctx, asset, func(tx ledger.Tx) error {
		return tx.Mint(ctx, asset, to, cfg.Amount, e.address())
	})
	if err != nil {
		return fmt.Errorf("mint %s: %w", asset.Hex(), err)
	}
	e.logger.Info("asset minted", zap.String("asset", asset.Hex()), zap.String("to", to.Hex()), zap.Uint64("amount", cfg.Amount))
	return printJSON(cmd, map[string]interface{}{"asset": asset, "to": to, "amount": cfg.Amount})
}
