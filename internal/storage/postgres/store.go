package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityCore/internal/model"
)

// Store provides Postgres persistence for events, pools and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutEventBatch stores the events and refreshes the touched pool rows in one
// transaction.
func (s *Store) PutEventBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertEvents(ctx, tx, events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	if err := upsertPools(ctx, tx, model.LatestSnapshots(events)); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	return tx.Commit(ctx)
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// insertEvents stores settlement events. Replayed events with a known seq
// are ignored.
func insertEvents(ctx context.Context, db batchSender, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", e.Seq, err)
		}
		batch.Queue(`
			INSERT INTO settlement_events (
				seq, kind, pool_address, account, ts, data,
				reserve_a, reserve_b, total_liquidity, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(e.Seq),
			e.Kind,
			e.Pool,
			e.Account,
			int64(e.Timestamp),
			data,
			e.Reserves.ReserveA,
			e.Reserves.ReserveB,
			e.Reserves.TotalLiquidity,
		)
	}
	return execBatch(ctx, db, batch, len(events))
}

// upsertPools inserts or updates pool rows. An older snapshot never
// overwrites a newer one.
func upsertPools(ctx context.Context, db batchSender, pools []model.PoolSnapshot) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, token_a, token_b, liquidity_token, reserve_a, reserve_b,
				total_liquidity, fee_bps, last_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				total_liquidity = EXCLUDED.total_liquidity,
				last_seq = EXCLUDED.last_seq,
				updated_at = now()
			WHERE pools.last_seq < EXCLUDED.last_seq
		`,
			pool.Address,
			pool.TokenA,
			pool.TokenB,
			pool.LiquidityToken,
			pool.ReserveA,
			pool.ReserveB,
			pool.TotalLiquidity,
			int64(pool.FeeBps),
			int64(pool.LastSeq),
		)
	}
	return execBatch(ctx, db, batch, len(pools))
}

func execBatch(ctx context.Context, db batchSender, batch *pgx.Batch, n int) error {
	br := db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume0, volume1, fee0, fee1, fee_rate0, fee_rate1,
				tvl0, tvl1, apr, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				fee_rate0 = EXCLUDED.fee_rate0,
				fee_rate1 = EXCLUDED.fee_rate1,
				tvl0 = EXCLUDED.tvl0,
				tvl1 = EXCLUDED.tvl1,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			m.FeeRate0,
			m.FeeRate1,
			m.TVL0,
			m.TVL1,
			m.APR,
		)
	}
	return execBatch(ctx, s.pool, batch, len(metrics))
}

// LoadState returns the cursor stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var cursor int64
	row := s.pool.QueryRow(ctx, `SELECT cursor FROM processing_state WHERE name=$1`, name)
	if err := row.Scan(&cursor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(cursor), true, nil
}

// SaveState upserts the cursor for name.
func (s *Store) SaveState(ctx context.Context, name string, cursor uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_state (name, cursor, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET cursor = EXCLUDED.cursor, updated_at = now()
	`, name, int64(cursor))
	return err
}
