package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"liquidityCore/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	require.NoError(t, s.PutEventBatch(ctx, nil))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, s.PutEventBatch(ctx, []model.Event{
		{Seq: 1, Kind: model.EventInitialize, Data: model.InitializeEventData{Liquidity: "2000"}},
	}))
	require.NoError(t, s.PutEventBatch(ctx, []model.Event{
		{Seq: 2, Kind: model.EventSwap, Data: model.SwapEventData{AmountOut: "363"}},
	}))

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var record model.EventRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	require.Equal(t, uint64(2), record.Seq)
	require.JSONEq(t, `{"token_in":"","token_out":"","amount_in":"","amount_out":"363","fee_amount":"","price_impact_bps":0}`, string(record.Data))
}

func TestJsonlStorageRejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.jsonl")
	s := NewJsonlStorage(path)

	require.NoError(t, s.PutRejections([]model.Rejection{{Line: 4, Op: model.OpSwap, Error: "slippage limit exceeded"}}))
	lines := readLines(t, path)
	require.Len(t, lines, 1)
	require.JSONEq(t, `{"line":4,"op":"swap","account":"","error":"slippage limit exceeded"}`, lines[0])
}

type failingStorage struct{ calls int }

func (f *failingStorage) PutEventBatch(context.Context, []model.Event) error {
	f.calls++
	return errors.New("down")
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	first := &failingStorage{}
	second := &failingStorage{}
	err := Multi{first, second}.PutEventBatch(context.Background(), []model.Event{{Seq: 1}})
	require.Error(t, err)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 0, second.calls)
}
