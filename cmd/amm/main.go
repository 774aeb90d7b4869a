package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product liquidity pool",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", "bolt", "ledger backend (bolt, postgres)")
	flags.String("bolt-path", "./data/amm.db", "bolt database path")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.Int("pg-connect-retries", 5, "Postgres connect attempts after the first")
	flags.Int("pg-conflict-retries", 3, "replays of a unit after a deadlock or serialization failure")
	flags.Duration("retry-backoff", 200*time.Millisecond, "initial retry backoff")
	flags.String("journal", "./data/journal.jsonl", "operation journal JSONL path, empty disables")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("key", "", "hex secp256k1 private key of the caller")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool for an ordered token pair",
		RunE:  runInit,
	}
	initCmd.Flags().String("token-x", "", "token X address (must sort below token Y)")
	initCmd.Flags().String("token-y", "", "token Y address")
	initCmd.Flags().Uint64("seed", 0, "pool seed")
	initCmd.Flags().Uint64("fee-bps", 30, "swap fee in basis points")
	root.AddCommand(initCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity and mint LP tokens",
		RunE:  runDeposit,
	}
	addPoolFlag(depositCmd)
	depositCmd.Flags().Uint64("lp", 0, "LP units to mint")
	depositCmd.Flags().Uint64("max-x", 0, "maximum token X to pay")
	depositCmd.Flags().Uint64("max-y", 0, "maximum token Y to pay")
	depositCmd.Flags().String("expiration", "", "deadline (unix seconds or RFC3339), defaults to now + ttl")
	depositCmd.Flags().Duration("ttl", 5*time.Minute, "deadline offset when expiration is unset")
	root.AddCommand(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn LP tokens for a share of the reserves",
		RunE:  runWithdraw,
	}
	addPoolFlag(withdrawCmd)
	withdrawCmd.Flags().Uint64("lp", 0, "LP units to burn")
	withdrawCmd.Flags().Uint64("min-x", 0, "minimum token X to receive")
	withdrawCmd.Flags().Uint64("min-y", 0, "minimum token Y to receive")
	root.AddCommand(withdrawCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Sell one reserve token for the other",
		RunE:  runSwap,
	}
	addPoolFlag(swapCmd)
	swapCmd.Flags().String("sell", "x", "token to sell (x, y)")
	swapCmd.Flags().Uint64("amount-in", 0, "amount to sell")
	swapCmd.Flags().Uint64("min-out", 0, "minimum amount to receive")
	root.AddCommand(swapCmd)

	for _, locked := range []bool{true, false} {
		use, short := "unlock", "Resume trading on a pool"
		if locked {
			use, short = "lock", "Freeze a pool"
		}
		lockCmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE:  runSetLocked(locked),
		}
		addPoolFlag(lockCmd)
		root.AddCommand(lockCmd)
	}

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Show a pool and its reserves",
		RunE:  runPool,
	}
	addPoolFlag(poolCmd)
	root.AddCommand(poolCmd)

	root.AddCommand(newQuoteCmd(), newAssetCmd(), newStatsCmd())

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show token balances",
		RunE:  runBalance,
	}
	balanceCmd.Flags().StringSlice("asset", nil, "asset addresses (comma-separated)")
	balanceCmd.Flags().String("owner", "", "account owner, defaults to the key address")
	root.AddCommand(balanceCmd)

	return root
}

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an operation without applying it",
	}

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Quote token amounts for minting LP units",
		RunE:  runQuoteDeposit,
	}
	addPoolFlag(depositCmd)
	depositCmd.Flags().Uint64("lp", 0, "LP units to mint")
	depositCmd.Flags().Uint64("max-x", 0, "token X for a first deposit")
	depositCmd.Flags().Uint64("max-y", 0, "token Y for a first deposit")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Quote token amounts for burning LP units",
		RunE:  runQuoteWithdraw,
	}
	addPoolFlag(withdrawCmd)
	withdrawCmd.Flags().Uint64("lp", 0, "LP units to burn")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote the output of a swap",
		RunE:  runQuoteSwap,
	}
	addPoolFlag(swapCmd)
	swapCmd.Flags().String("sell", "x", "token to sell (x, y)")
	swapCmd.Flags().Uint64("amount-in", 0, "amount to sell")

	quoteCmd.AddCommand(depositCmd, withdrawCmd, swapCmd)
	return quoteCmd
}

func newAssetCmd() *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage ledger assets",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register assets with the key address as mint authority",
		RunE:  runAssetCreate,
	}
	createCmd.Flags().StringSlice("asset", nil, "asset addresses (comma-separated)")
	createCmd.Flags().Uint("decimals", 6, "asset decimals")

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue units of an asset",
		RunE:  runAssetMint,
	}
	mintCmd.Flags().StringSlice("asset", nil, "asset address")
	mintCmd.Flags().String("to", "", "recipient, defaults to the key address")
	mintCmd.Flags().Uint64("amount", 0, "units to issue")

	assetCmd.AddCommand(createCmd, mintCmd)
	return assetCmd
}

func addPoolFlag(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool address")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
