package replay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/ledger"
	"liquidityCore/internal/metrics"
	"liquidityCore/internal/model"
	"liquidityCore/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	JournalPath       string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// RejectionSink receives operations the engine refused.
type RejectionSink interface {
	PutRejections(rejections []model.Rejection) error
}

// Summary reports what a run did after the resume point.
type Summary struct {
	Lines    uint64
	Resumed  uint64
	Applied  int
	Rejected int
	Events   int
}

// Runner applies an operation journal through the settlement engine and
// streams the resulting events to storage.
type Runner struct {
	cfg        RunConfig
	engine     *amm.Engine
	ledger     *ledger.Memory
	storage    storage.Storage
	rejections RejectionSink
	logger     *zap.Logger
	checkpoint *CheckpointStore

	ts        uint64
	recording bool
	applied   int
	events    []model.Event
	rejected  []model.Rejection
}

// NewRunner builds a Runner and the engine it drives. rejections may be nil.
func NewRunner(cfg RunConfig, book *ledger.Memory, sink storage.Storage, rejections RejectionSink, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:        cfg,
		ledger:     book,
		storage:    sink,
		rejections: rejections,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
	r.engine = amm.NewEngine(amm.NewRegistry(), book,
		amm.WithLogger(logger.Named("engine")),
		amm.WithMetrics(m),
		amm.WithEventSink(amm.EventSinkFunc(r.collect)),
		amm.WithClock(func() time.Time { return time.Unix(int64(r.ts), 0).UTC() }),
	)
	return r
}

func (r *Runner) Engine() *amm.Engine { return r.engine }

// Run replays the journal. Lines covered by the checkpoint are re-applied
// only to rebuild pool and ledger state; their events are not stored again.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if r.storage == nil {
		return summary, fmt.Errorf("storage is nil")
	}
	if r.ledger == nil {
		return summary, fmt.Errorf("ledger is nil")
	}
	if r.cfg.BatchSize == 0 {
		return summary, fmt.Errorf("batch size must be greater than zero")
	}

	lines, err := readJournal(r.cfg.JournalPath)
	if err != nil {
		return summary, err
	}
	total := uint64(len(lines))
	summary.Lines = total

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return summary, err
	}
	if ok {
		if cp.LastAppliedLine > total {
			return summary, fmt.Errorf("%w: checkpoint at line %d, journal has %d", ErrJournalMismatch, cp.LastAppliedLine, total)
		}
		for n := uint64(1); n <= cp.LastAppliedLine; n++ {
			if err := r.apply(ctx, n, lines[n-1]); err != nil {
				return summary, err
			}
		}
		if seq := r.engine.LastSeq(); seq != cp.LastSeq {
			return summary, fmt.Errorf("%w: rebuilt seq %d, checkpoint seq %d", ErrJournalMismatch, seq, cp.LastSeq)
		}
		summary.Resumed = cp.LastAppliedLine
		r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", cp.LastAppliedLine), zap.Uint64("seq", cp.LastSeq))
	}

	if summary.Resumed >= total {
		r.logger.Info("nothing to replay", zap.Uint64("lines", total))
		return summary, nil
	}

	ranges, err := SplitRange(summary.Resumed+1, total, r.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	r.recording = true
	defer func() { r.recording = false }()

	for _, lineRange := range ranges {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		for n := lineRange.From; n <= lineRange.To; n++ {
			if err := r.apply(ctx, n, lines[n-1]); err != nil {
				return summary, err
			}
		}

		summary.Events += len(r.events)
		summary.Rejected += len(r.rejected)
		if err := r.flush(ctx, lineRange.To); err != nil {
			return summary, err
		}
		r.logger.Info("batch complete", zap.Uint64("from", lineRange.From), zap.Uint64("to", lineRange.To))
	}
	summary.Applied = r.applied

	return summary, nil
}

// apply runs one journal line. Rejections are recorded and swallowed; only
// internal defects stop the run.
func (r *Runner) apply(ctx context.Context, n uint64, line []byte) error {
	if len(line) == 0 {
		return nil
	}
	op, err := decodeOperation(line)
	if err == nil {
		r.ts = op.Timestamp
		err = r.dispatch(ctx, op)
	}
	if err == nil {
		if r.recording {
			r.applied++
		}
		return nil
	}
	if amm.IsInternal(err) {
		return fmt.Errorf("line %d: %w", n, err)
	}
	if r.recording {
		r.rejected = append(r.rejected, model.Rejection{
			Line:    n,
			Op:      op.Op,
			Account: op.Account,
			Error:   err.Error(),
		})
	}
	return nil
}

func (r *Runner) dispatch(ctx context.Context, op model.Operation) error {
	switch op.Op {
	case model.OpCredit:
		return r.credit(op)
	case model.OpInitialize:
		return r.initialize(ctx, op)
	case model.OpAdd:
		return r.addLiquidity(ctx, op)
	case model.OpRemove:
		return r.removeLiquidity(ctx, op)
	case model.OpSwap, model.OpSwapExactOut:
		return r.swap(ctx, op)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
}

func (r *Runner) collect(event model.Event) {
	if r.recording {
		r.events = append(r.events, event)
	}
}

func (r *Runner) flush(ctx context.Context, line uint64) error {
	events := r.events
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.warn("store events", line), func(ctx context.Context) error {
		return r.storage.PutEventBatch(ctx, events)
	})
	if err != nil {
		return fmt.Errorf("store events: %w", err)
	}

	if r.rejections != nil && len(r.rejected) > 0 {
		rejected := r.rejected
		err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.warn("store rejections", line), func(context.Context) error {
			return r.rejections.PutRejections(rejected)
		})
		if err != nil {
			return fmt.Errorf("store rejections: %w", err)
		}
	}

	if err := r.checkpoint.Save(line, r.engine.LastSeq()); err != nil {
		return err
	}
	r.events = r.events[:0]
	r.rejected = r.rejected[:0]
	return nil
}

func (r *Runner) warn(msg string, line uint64) func(int, error) {
	return func(attempt int, err error) {
		r.logger.Warn(msg+" failed", zap.Error(err), zap.Int("attempt", attempt), zap.Uint64("line", line))
	}
}

func readJournal(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lines [][]byte
	for scanner.Scan() {
		lines = append(lines, bytes.Clone(bytes.TrimSpace(scanner.Bytes())))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return lines, nil
}

var maxAmount = new(uint256.Int).SetAllOne()
