package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammCore/internal/model"
)

// Sink receives finished window metrics.
type Sink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	Pool          common.Address
	StateStore    StateStore
}

// Aggregator folds journal receipts into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         Sink
	ledger       Ledger
	logger       *zap.Logger
	decimals     *TokenDecimalsCache
	accumulators map[common.Address]*Accumulator
	pools        map[common.Address]model.Pool
	results      []model.PoolWindowMetrics
}

func NewAggregator(cfg Config, sink Sink, ledger Ledger, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		ledger:       ledger,
		logger:       logger,
		decimals:     NewTokenDecimalsCache(),
		accumulators: make(map[common.Address]*Accumulator),
		pools:        make(map[common.Address]model.Pool),
	}
}

// Run aggregates a receipt journal and returns every window it produced.
// A nil sink only collects the results.
func (a *Aggregator) Run(ctx context.Context, journalPath string) ([]model.PoolWindowMetrics, error) {
	if a.ledger == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(journalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, windows, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var receipt model.Receipt
		if err := json.Unmarshal(line, &receipt); err != nil {
			failed++
			a.logger.Warn("decode receipt", zap.Error(err))
			continue
		}

		ts := uint64(receipt.Timestamp)
		if ts <= startTs || (a.cfg.Pool != (common.Address{}) && receipt.Pool != a.cfg.Pool) {
			skipped++
			continue
		}
		if !movesReserves(receipt.Op) {
			skipped++
			continue
		}

		start := windowStart(ts, a.cfg.WindowSeconds)
		end := start + a.cfg.WindowSeconds

		acc := a.accumulators[receipt.Pool]
		if acc == nil {
			acc = NewAccumulator(receipt, start, end)
			a.accumulators[receipt.Pool] = acc
		} else if acc.WindowStart != start {
			metrics, err := a.flushAccumulator(ctx, acc)
			if err != nil {
				return nil, err
			}
			if metrics != nil {
				batch = append(batch, *metrics)
				windows++
			}
			acc = NewAccumulator(receipt, start, end)
			a.accumulators[receipt.Pool] = acc
		}

		acc.AddReceipt(receipt)
		if ts > maxTs {
			maxTs = ts
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatch(ctx, batch); err != nil {
				return nil, err
			}
			batch = batch[:0]

			if err := a.saveState(ctx, maxTs); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	for _, acc := range a.accumulators {
		metrics, err := a.flushAccumulator(ctx, acc)
		if err != nil {
			return nil, err
		}
		if metrics != nil {
			batch = append(batch, *metrics)
			windows++
		}
	}

	if len(batch) > 0 {
		if err := a.flushBatch(ctx, batch); err != nil {
			return nil, err
		}
	}

	// The last window of each pool stays open, so the next run rebuilds it.
	if err := a.saveState(ctx, maxTs); err != nil {
		return nil, err
	}
	a.accumulators = make(map[common.Address]*Accumulator)

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return a.results, nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records the timestamp after which the next run starts. With open
// windows that is just before the oldest one, otherwise done.
func (a *Aggregator) saveState(ctx context.Context, done uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	safeTs := done
	if start, ok := minOpenWindowStart(a.accumulators); ok {
		safeTs = 0
		if start > 0 {
			safeTs = start - 1
		}
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatch(ctx context.Context, batch []model.PoolWindowMetrics) error {
	a.results = append(a.results, batch...)
	if a.sink == nil {
		return nil
	}
	return a.sink.UpsertWindowMetrics(ctx, batch)
}

func (a *Aggregator) flushAccumulator(ctx context.Context, acc *Accumulator) (*model.PoolWindowMetrics, error) {
	if acc == nil {
		return nil, nil
	}

	pool, err := a.getPool(ctx, acc.PoolAddress)
	if err != nil {
		a.logger.Warn("missing pool", zap.String("pool", acc.PoolAddress.Hex()), zap.Error(err))
		return nil, nil
	}

	decimalsX, err := a.getTokenDecimals(ctx, pool.TokenX)
	if err != nil {
		a.logger.Warn("token x decimals", zap.String("token", pool.TokenX.Hex()), zap.Error(err))
	}
	decimalsY, err := a.getTokenDecimals(ctx, pool.TokenY)
	if err != nil {
		a.logger.Warn("token y decimals", zap.String("token", pool.TokenY.Hex()), zap.Error(err))
	}

	reserveX := new(big.Int).SetUint64(acc.Reserves.X)
	reserveY := new(big.Int).SetUint64(acc.Reserves.Y)
	feeRateX, feeRateY := computeFeeRates(acc.FeeX, acc.FeeY, reserveX, reserveY)
	apr := computeAPR(acc.FeeX, acc.FeeY, reserveX, reserveY, a.cfg.WindowSeconds)

	return &model.PoolWindowMetrics{
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		VolumeX:        formatTokenAmount(acc.VolumeX, decimalsX),
		VolumeY:        formatTokenAmount(acc.VolumeY, decimalsY),
		FeeX:           formatTokenAmount(acc.FeeX, decimalsX),
		FeeY:           formatTokenAmount(acc.FeeY, decimalsY),
		FeeRateX:       feeRateX,
		FeeRateY:       feeRateY,
		ReserveX:       formatTokenAmount(reserveX, decimalsX),
		ReserveY:       formatTokenAmount(reserveY, decimalsY),
		APR:            apr,
	}, nil
}

func (a *Aggregator) getPool(ctx context.Context, address common.Address) (model.Pool, error) {
	if pool, ok := a.pools[address]; ok {
		return pool, nil
	}
	pool, err := a.ledger.Pool(ctx, address)
	if err != nil {
		return model.Pool{}, err
	}
	a.pools[address] = pool
	return pool, nil
}

func (a *Aggregator) getTokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if decimals, ok := a.decimals.Get(token); ok {
		return decimals, nil
	}
	decimals, err := a.ledger.Decimals(ctx, token)
	if err != nil {
		return 0, err
	}
	a.decimals.Set(token, decimals)
	return decimals, nil
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[common.Address]*Accumulator) (uint64, bool) {
	var min uint64
	found := false
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if !found || entry.WindowStart < min {
			min = entry.WindowStart
			found = true
		}
	}
	return min, found
}

func movesReserves(op string) bool {
	switch op {
	case model.OpSwap, model.OpDeposit, model.OpWithdraw:
		return true
	default:
		return false
	}
}

// StateName keys saved progress by window size and pool filter.
func StateName(windowSeconds uint64, pool common.Address) string {
	scope := "all"
	if pool != (common.Address{}) {
		scope = pool.Hex()
	}
	return fmt.Sprintf("stats:%d:%s", windowSeconds, scope)
}
