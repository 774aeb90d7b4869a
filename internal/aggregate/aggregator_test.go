package aggregate

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"ammCore/internal/model"
	"ammCore/internal/storage"
)

var (
	poolP  = common.HexToAddress("0x0100000000000000000000000000000000000001")
	poolQ  = common.HexToAddress("0x0200000000000000000000000000000000000002")
	tokenX = common.HexToAddress("0x1000000000000000000000000000000000000000")
	tokenY = common.HexToAddress("0x2000000000000000000000000000000000000000")
)

type fakeLedger struct {
	decimals map[common.Address]uint8
	lookups  int
}

func (f *fakeLedger) Pool(_ context.Context, address common.Address) (model.Pool, error) {
	if address != poolP && address != poolQ {
		return model.Pool{}, fmt.Errorf("unknown pool %s", address.Hex())
	}
	return model.Pool{Address: address, TokenX: tokenX, TokenY: tokenY}, nil
}

func (f *fakeLedger) Decimals(_ context.Context, token common.Address) (uint8, error) {
	f.lookups++
	return f.decimals[token], nil
}

type captureSink struct {
	batches [][]model.PoolWindowMetrics
}

func (c *captureSink) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	batch := make([]model.PoolWindowMetrics, len(metrics))
	copy(batch, metrics)
	c.batches = append(c.batches, batch)
	return nil
}

type namedState map[string]uint64

func (n namedState) LoadState(_ context.Context, name string) (uint64, bool, error) {
	ts, ok := n[name]
	return ts, ok, nil
}

func (n namedState) SaveState(_ context.Context, name string, ts uint64) error {
	n[name] = ts
	return nil
}

type memoryState struct {
	ts uint64
	ok bool
}

func (m *memoryState) Load(context.Context) (uint64, bool, error) { return m.ts, m.ok, nil }

func (m *memoryState) Save(_ context.Context, ts uint64) error {
	m.ts, m.ok = ts, true
	return nil
}

func writeJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	receipts := []model.Receipt{
		{Op: model.OpInitialize, Pool: poolP, Timestamp: 900},
		{Op: model.OpDeposit, Pool: poolP, LPAmount: 2000, AmountX: 1000, AmountY: 4000,
			Reserves: model.Reserves{X: 1000, Y: 4000, LPSupply: 2000}, Timestamp: 1000},
		{Op: model.OpSwap, Pool: poolP, IsX: true, AmountIn: 100, AmountOut: 360, Fee: 1,
			Reserves: model.Reserves{X: 1100, Y: 3640, LPSupply: 2000}, Timestamp: 1100},
		{Op: model.OpSwap, Pool: poolQ, IsX: true, AmountIn: 5, AmountOut: 4, Timestamp: 1150},
		{Op: model.OpSwap, Pool: poolP, IsX: false, AmountIn: 400, AmountOut: 90, Fee: 2,
			Reserves: model.Reserves{X: 1010, Y: 4040, LPSupply: 2000}, Timestamp: 1200},
		{Op: model.OpWithdraw, Pool: poolP, LPAmount: 200, AmountX: 101, AmountY: 404,
			Reserves: model.Reserves{X: 909, Y: 3636, LPSupply: 1800}, Timestamp: 4000},
	}
	require.NoError(t, storage.NewJsonlJournal(path).PutReceipts(receipts))
	return path
}

func TestAggregatorWindows(t *testing.T) {
	path := writeJournal(t)
	ledger := &fakeLedger{decimals: map[common.Address]uint8{tokenX: 0, tokenY: 0}}
	sink := &captureSink{}
	state := &memoryState{}

	agg := NewAggregator(Config{WindowSeconds: 3600, Pool: poolP, StateStore: state}, sink, ledger, nil)
	results, err := agg.Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	require.Equal(t, poolP, first.PoolAddress)
	require.Equal(t, int64(0), first.WindowStart.Unix())
	require.Equal(t, int64(3600), first.WindowEnd.Unix())
	require.Equal(t, uint64(2), first.SwapCount)
	require.Equal(t, uint64(1), first.DepositCount)
	require.Equal(t, "190", first.VolumeX)
	require.Equal(t, "760", first.VolumeY)
	require.Equal(t, "1", first.FeeX)
	require.Equal(t, "2", first.FeeY)
	require.Equal(t, "1010", first.ReserveX)
	require.Equal(t, "4040", first.ReserveY)
	require.NotNil(t, first.FeeRateX)
	require.NotNil(t, first.FeeRateY)
	require.NotNil(t, first.APR)

	second := results[1]
	require.Equal(t, int64(3600), second.WindowStart.Unix())
	require.Equal(t, uint64(1), second.WithdrawCount)
	require.Equal(t, uint64(0), second.SwapCount)
	require.Nil(t, second.APR)
	require.Equal(t, "909", second.ReserveX)

	total := 0
	for _, batch := range sink.batches {
		total += len(batch)
	}
	require.Equal(t, 2, total)
	require.Equal(t, 2, ledger.lookups)

	require.True(t, state.ok)
	require.Equal(t, uint64(3599), state.ts)

	again, err := NewAggregator(Config{WindowSeconds: 3600, Pool: poolP, StateStore: state}, nil, ledger, nil).Run(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, []model.PoolWindowMetrics{second}, again)
}

func swapAt(pool common.Address, ts int64, in uint64) model.Receipt {
	return model.Receipt{Op: model.OpSwap, Pool: pool, IsX: true, AmountIn: in, AmountOut: in / 2, Fee: 1,
		Reserves: model.Reserves{X: 1000, Y: 2000, LPSupply: 1000}, Timestamp: ts}
}

func TestAggregatorResumeRebuildsOpenWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	journal := storage.NewJsonlJournal(path)
	require.NoError(t, journal.PutReceipts([]model.Receipt{swapAt(poolP, 7300, 100), swapAt(poolP, 7400, 100)}))

	ledger := &fakeLedger{decimals: map[common.Address]uint8{}}
	state := &memoryState{}
	results, err := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, nil, ledger, nil).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint64(2), results[0].SwapCount)
	require.Equal(t, uint64(7199), state.ts)

	require.NoError(t, journal.PutReceipts([]model.Receipt{swapAt(poolP, 7500, 100)}))

	sink := &captureSink{}
	results, err = NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, sink, ledger, nil).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint64(3), results[0].SwapCount)
	require.Equal(t, "300", results[0].VolumeX)
	require.Len(t, sink.batches, 1)
	require.Equal(t, uint64(3), sink.batches[0][0].SwapCount)
}

func TestAggregatorProgressIsScopedByPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, storage.NewJsonlJournal(path).PutReceipts([]model.Receipt{
		swapAt(poolQ, 7250, 40),
		swapAt(poolP, 7300, 100),
		swapAt(poolP, 11000, 100),
	}))

	ledger := &fakeLedger{decimals: map[common.Address]uint8{}}
	backend := namedState{}
	run := func(pool common.Address) []model.PoolWindowMetrics {
		state := &DBStateStore{Store: backend, Name: StateName(3600, pool)}
		results, err := NewAggregator(Config{WindowSeconds: 3600, Pool: pool, StateStore: state}, nil, ledger, nil).Run(context.Background(), path)
		require.NoError(t, err)
		return results
	}

	require.Len(t, run(poolP), 2)
	require.Equal(t, uint64(10799), backend[StateName(3600, poolP)])

	all := run(common.Address{})
	var qSwaps uint64
	for _, m := range all {
		if m.PoolAddress == poolQ {
			qSwaps += m.SwapCount
		}
	}
	require.Equal(t, uint64(1), qSwaps)
	require.Len(t, backend, 2)
}

func TestAggregatorSkipsReceiptsWithoutReserves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, storage.NewJsonlJournal(path).PutReceipts([]model.Receipt{
		{Op: model.OpInitialize, Pool: poolP, Timestamp: 100},
		{Op: model.OpLock, Pool: poolP, Timestamp: 200},
		{Op: model.OpUnlock, Pool: poolP, Timestamp: 300},
		swapAt(poolP, 3700, 100),
	}))

	results, err := NewAggregator(Config{WindowSeconds: 3600}, nil, &fakeLedger{}, nil).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(3600), results[0].WindowStart.Unix())
	require.Equal(t, "1000", results[0].ReserveX)
}

func TestStateName(t *testing.T) {
	require.Equal(t, "stats:3600:all", StateName(3600, common.Address{}))
	require.Equal(t, "stats:60:"+poolP.Hex(), StateName(60, poolP))
}

func TestAggregatorRecomputeFrom(t *testing.T) {
	path := writeJournal(t)
	ledger := &fakeLedger{decimals: map[common.Address]uint8{tokenX: 3, tokenY: 3}}

	agg := NewAggregator(Config{WindowSeconds: 3600, Pool: poolP, RecomputeFrom: 1200}, nil, ledger, nil)
	results, err := agg.Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint64(1), results[0].SwapCount)
	require.Equal(t, "0.090", results[0].VolumeX)
	require.Equal(t, "0.400", results[0].VolumeY)
}

func TestAggregatorRejectsBadConfig(t *testing.T) {
	_, err := NewAggregator(Config{}, nil, &fakeLedger{}, nil).Run(context.Background(), "unused")
	require.Error(t, err)
	_, err = NewAggregator(Config{WindowSeconds: 60}, nil, nil, nil).Run(context.Background(), "unused")
	require.Error(t, err)
}

func TestComputeAPR(t *testing.T) {
	// Fee of 1% on each side over one day is 1% daily yield.
	apr := computeAPR(big.NewInt(10), big.NewInt(20), big.NewInt(1000), big.NewInt(2000), 86400)
	require.NotNil(t, apr)
	require.Equal(t, "3.650000000000000000", *apr)

	require.Nil(t, computeAPR(big.NewInt(0), big.NewInt(0), big.NewInt(1000), big.NewInt(2000), 86400))
	require.Nil(t, computeAPR(big.NewInt(1), nil, big.NewInt(0), nil, 86400))
	require.Nil(t, computeAPR(big.NewInt(1), nil, big.NewInt(10), nil, 0))
}

func TestFormatTokenAmount(t *testing.T) {
	require.Equal(t, "0", formatTokenAmount(nil, 6))
	require.Equal(t, "1500", formatTokenAmount(big.NewInt(1500), 0))
	require.Equal(t, "1.500000", formatTokenAmount(big.NewInt(1_500_000), 6))
}
