package main

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"ammCore/internal/config"
	"ammCore/internal/curve"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

type poolView struct {
	Pool     model.Pool     `json:"pool"`
	Reserves model.Reserves `json:"reserves"`
	ReserveX string         `json:"reserve_x_units"`
	ReserveY string         `json:"reserve_y_units"`
	LPSupply string         `json:"lp_supply_units"`
	PriceXY  string         `json:"price_y_per_x,omitempty"`
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, false)
	if err != nil {
		return err
	}
	defer e.Close()

	pool, reserves, err := e.service.PoolInfo(ctx, cfg.Pool)
	if err != nil {
		return err
	}

	var decimalsX, decimalsY uint8
	err = e.store.View(ctx, func(tx ledger.Tx) error {
		mintX, err := tx.GetMint(ctx, pool.TokenX)
		if err != nil {
			return err
		}
		mintY, err := tx.GetMint(ctx, pool.TokenY)
		if err != nil {
			return err
		}
		decimalsX, decimalsY = mintX.Decimals, mintY.Decimals
		return nil
	})
	if err != nil {
		return err
	}

	view := poolView{
		Pool:     pool,
		Reserves: reserves,
		ReserveX: model.FormatAmount(reserves.X, decimalsX),
		ReserveY: model.FormatAmount(reserves.Y, decimalsY),
		LPSupply: model.FormatAmount(reserves.LPSupply, pool.LPDecimals),
	}
	if price, err := curve.SpotPrice(reserves.X, reserves.Y); err == nil {
		view.PriceXY = price.FloatString(6)
	}
	return printJSON(cmd, view)
}

func runQuoteDeposit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDeposit(cfgFile, cmd.Flags(), timeNow())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, false)
	if err != nil {
		return err
	}
	defer e.Close()

	amounts, err := e.service.QuoteDeposit(ctx, cfg.Pool, cfg.LPAmount, cfg.MaxX, cfg.MaxY)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]uint64{"lp_amount": cfg.LPAmount, "amount_x": amounts.X, "amount_y": amounts.Y})
}

func runQuoteWithdraw(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithdraw(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, false)
	if err != nil {
		return err
	}
	defer e.Close()

	amounts, err := e.service.QuoteWithdraw(ctx, cfg.Pool, cfg.LPAmount)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]uint64{"lp_amount": cfg.LPAmount, "amount_x": amounts.X, "amount_y": amounts.Y})
}

func runQuoteSwap(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSwap(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := openEnv(ctx, cfg.Config, false)
	if err != nil {
		return err
	}
	defer e.Close()

	out, err := e.service.QuoteSwap(ctx, cfg.Pool, cfg.IsX, cfg.AmountIn)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]interface{}{"is_x": cfg.IsX, "amount_in": cfg.AmountIn, "amount_out": out})
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAsset(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	owner := cfg.Owner
	e, err := openEnv(ctx, cfg.Config, owner == (common.Address{}))
	if err != nil {
		return err
	}
	defer e.Close()
	if owner == (common.Address{}) {
		owner = e.address()
	}

	balances := make(map[string]uint64, len(cfg.Assets))
	err = e.store.View(ctx, func(tx ledger.Tx) error {
		for _, asset := range cfg.Assets {
			bal, err := tx.BalanceOf(ctx, model.Account{Owner: owner, Asset: asset})
			if err != nil {
				return err
			}
			balances[asset.Hex()] = bal
		}
		return nil
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]interface{}{"owner": owner, "balances": balances})
}
