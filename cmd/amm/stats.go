package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/aggregate"
	"ammCore/internal/config"
)

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the operation journal into per-pool window metrics",
		RunE:  runStats,
	}
	statsCmd.Flags().String("window", "1h", "aggregation window (e.g. 5m, 1h)")
	statsCmd.Flags().String("pool", "", "only aggregate this pool")
	statsCmd.Flags().Int("batch-size", 1000, "windows per metrics write")
	statsCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	statsCmd.Flags().Bool("resume", false, "continue from the progress saved by the previous run")
	return statsCmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
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

	var sink aggregate.Sink
	if s, ok := e.store.(aggregate.Sink); ok {
		sink = s
	}

	var stateStore aggregate.StateStore
	if cfg.Resume {
		backend, ok := e.store.(aggregate.NamedStateBackend)
		if !ok {
			return fmt.Errorf("store %q cannot save progress", cfg.Store)
		}
		stateStore = &aggregate.DBStateStore{Store: backend, Name: aggregate.StateName(cfg.WindowSeconds, cfg.Pool)}
	}

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: cfg.WindowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		Pool:          cfg.Pool,
		StateStore:    stateStore,
	}, sink, aggregate.StoreLedger{Store: e.store}, e.logger)

	e.logger.Info("stats start",
		zap.String("journal", cfg.Journal),
		zap.Uint64("window_seconds", cfg.WindowSeconds),
		zap.Bool("resume", cfg.Resume),
		zap.Bool("sink", sink != nil),
	)

	metrics, err := agg.Run(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	return printJSON(cmd, metrics)
}
