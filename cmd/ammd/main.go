package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammd",
		Short:        "Constant-product AMM settlement daemon",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operation journal and store settlement events",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("journal", "", "input operation journal JSONL")
	replayCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL path")
	replayCmd.Flags().String("errors", "./data/rejections.jsonl", "rejected operations JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for events and pool rows")
	replayCmd.Flags().Uint64("batch-size", 500, "journal lines per batch")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for storage writes")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade against the given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("reserve-in", "", "reserve of the input asset")
	quoteCmd.Flags().String("reserve-out", "", "reserve of the output asset")
	quoteCmd.Flags().Uint64("fee-bps", 30, "fee in basis points")
	quoteCmd.Flags().String("amount", "", "input amount, or output amount with --exact-out")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the desired output")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Seed local pools from on-chain Uniswap V2 pairs",
		RunE:  runMirror,
	}

	mirrorCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	mirrorCmd.Flags().StringSlice("pair", nil, "pair addresses (comma-separated)")
	mirrorCmd.Flags().Uint64("block", 0, "block to read, 0 means latest")
	mirrorCmd.Flags().Uint64("fee-bps", 30, "fee in basis points for the local pool")
	mirrorCmd.Flags().String("amount", "", "optional token0 amount to quote against each pool")
	mirrorCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(mirrorCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate settlement events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "./data/events.jsonl", "input events JSONL")
	aggregateCmd.Flags().String("out", "./data/window_metrics.jsonl", "output JSONL when no Postgres DSN is set")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("state-name", "aggregate", "state row name when tracking progress in Postgres")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	return root
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
