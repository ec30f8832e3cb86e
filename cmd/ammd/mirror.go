package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/chain"
	"liquidityCore/internal/config"
	"liquidityCore/internal/fixedpoint"
	"liquidityCore/internal/ledger"
	"liquidityCore/internal/model"
	"liquidityCore/internal/pairsource"
	"liquidityCore/internal/replay"
)

var mirrorProvider = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

type mirrorOutput struct {
	Pair  model.PairReserves `json:"pair"`
	Pool  model.PoolSnapshot `json:"pool"`
	Quote *quoteOutput       `json:"quote,omitempty"`
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMirror(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pairs, err := replay.ParseAddresses(cfg.Pairs)
	if err != nil {
		return err
	}

	amount := fixedpoint.Zero()
	if cfg.Amount != "" {
		if amount, err = fixedpoint.ParseAmount(cfg.Amount); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	source := pairsource.New(chainClient, logger)
	book := ledger.NewMemory()
	engine := amm.NewEngine(amm.NewRegistry(), book, amm.WithLogger(logger.Named("engine")))
	enc := json.NewEncoder(cmd.OutOrStdout())

	for _, pair := range pairs {
		reserves, err := source.Reserves(ctx, pair, cfg.Block)
		if err != nil {
			return err
		}
		pool, err := pairsource.Mirror(ctx, engine, book, mirrorProvider, reserves, cfg.FeeBps)
		if err != nil {
			return err
		}

		out := mirrorOutput{Pair: reserves, Pool: snapshot(pool)}
		if !amount.IsZero() {
			q, err := engine.Quote(pool.ID(), common.HexToAddress(reserves.Token0), amount)
			if err != nil {
				logger.Warn("quote failed", zap.Stringer("pair", pair), zap.Error(err))
			} else {
				qo := newQuoteOutput(q)
				out.Quote = &qo
			}
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func snapshot(pool *amm.Pool) model.PoolSnapshot {
	state := pool.Snapshot()
	return model.PoolSnapshot{
		Address:        pool.ID().Hex(),
		TokenA:         pool.TokenA().Hex(),
		TokenB:         pool.TokenB().Hex(),
		LiquidityToken: pool.LiquidityToken().Hex(),
		ReserveA:       state.ReserveA.Dec(),
		ReserveB:       state.ReserveB.Dec(),
		TotalLiquidity: state.TotalLiquidity.Dec(),
		FeeBps:         state.FeeBasisPoints,
	}
}
