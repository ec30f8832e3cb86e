package aggregate

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"liquidityCore/internal/model"
)

const (
	poolAddr = "0x1111111111111111111111111111111111111111"
	tokenA   = "0x00000000000000000000000000000000000000aa"
	tokenB   = "0x00000000000000000000000000000000000000bb"
)

type memoryMetrics struct {
	rows []model.PoolWindowMetrics
}

func (m *memoryMetrics) UpsertWindowMetrics(_ context.Context, rows []model.PoolWindowMetrics) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func event(t *testing.T, seq, ts uint64, kind string, data interface{}, reserveA, reserveB string) string {
	t.Helper()
	line, err := json.Marshal(model.Event{
		Seq:       seq,
		Kind:      kind,
		Pool:      poolAddr,
		Timestamp: ts,
		Data:      data,
		Reserves:  model.PoolReserves{TokenA: tokenA, TokenB: tokenB, ReserveA: reserveA, ReserveB: reserveB, TotalLiquidity: "2000", FeeBps: 30},
	})
	require.NoError(t, err)
	return string(line)
}

func swapData(tokenIn, tokenOut, in, out, fee string) model.SwapEventData {
	return model.SwapEventData{TokenIn: tokenIn, TokenOut: tokenOut, AmountIn: in, AmountOut: out, FeeAmount: fee}
}

func writeEvents(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestAggregatorWindows(t *testing.T) {
	path := writeEvents(t, []string{
		event(t, 1, 1000, model.EventInitialize, model.InitializeEventData{AmountA: "1000", AmountB: "4000"}, "1000", "4000"),
		event(t, 2, 1100, model.EventSwap, swapData(tokenA, tokenB, "100", "363", "0"), "1100", "3637"),
		event(t, 3, 1200, model.EventSwap, swapData(tokenB, tokenA, "400", "90", "1"), "1010", "4037"),
		`garbage`,
		event(t, 4, 4000, model.EventSwap, swapData(tokenA, tokenB, "10", "39", "0"), "1020", "3998"),
	})

	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	store := &memoryMetrics{}
	agg := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, store, zaptest.NewLogger(t))
	require.NoError(t, agg.Run(context.Background(), path))

	require.Len(t, store.rows, 2)
	first := store.rows[0]
	require.Equal(t, poolAddr, first.PoolAddress)
	require.Equal(t, time.Unix(0, 0).UTC(), first.WindowStart)
	require.Equal(t, time.Unix(3600, 0).UTC(), first.WindowEnd)
	require.Equal(t, uint64(2), first.SwapCount)
	require.Equal(t, "190", first.Volume0)
	require.Equal(t, "763", first.Volume1)
	require.Equal(t, "0", first.Fee0)
	require.Equal(t, "1", first.Fee1)
	require.Equal(t, "1010", first.TVL0)
	require.Equal(t, "4037", first.TVL1)
	require.Nil(t, first.FeeRate0)
	require.NotNil(t, first.FeeRate1)
	require.NotNil(t, first.APR)

	second := store.rows[1]
	require.Equal(t, uint64(1), second.SwapCount)
	require.Equal(t, "10", second.Volume0)
	require.Equal(t, "3998", second.TVL1)
	require.Nil(t, second.APR)

	cursor, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(4000), cursor)

	// Everything is behind the cursor on a second pass.
	again := &memoryMetrics{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, again, nil).Run(context.Background(), path))
	require.Empty(t, again.rows)
}

func TestAggregatorRequiresWindow(t *testing.T) {
	agg := NewAggregator(Config{}, &memoryMetrics{}, nil)
	require.Error(t, agg.Run(context.Background(), "missing.jsonl"))
}

func TestComputeAPR(t *testing.T) {
	year := uint64(365 * 24 * 60 * 60)
	apr := computeAPR(big.NewInt(30), big.NewInt(0), big.NewInt(1000), big.NewInt(4000), year)
	require.NotNil(t, apr)
	require.Equal(t, "0.015000000000000000", *apr)

	require.Nil(t, computeAPR(big.NewInt(30), nil, big.NewInt(0), big.NewInt(4000), year))
}

func TestAccumulatorRejectsForeignToken(t *testing.T) {
	acc := &Accumulator{TokenA: tokenA, TokenB: tokenB, Volume0: big.NewInt(0), Volume1: big.NewInt(0), Fee0: big.NewInt(0), Fee1: big.NewInt(0)}
	err := acc.applySwap(swapData("0x01", tokenB, "1", "1", "0"))
	require.Error(t, err)
	require.Zero(t, acc.SwapCount)
}

func TestJsonlMetricsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	store := NewJsonlMetricsStore(path)
	require.NoError(t, store.UpsertWindowMetrics(context.Background(), []model.PoolWindowMetrics{{PoolAddress: poolAddr, SwapCount: 3}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"swap_count":3`)
}
