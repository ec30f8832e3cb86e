package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/config"
	"liquidityCore/internal/fixedpoint"
)

// Placeholder assets for offline quotes. The input sorts first so it is
// always asset A.
var (
	quoteAssetIn  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	quoteAssetOut = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

type quoteOutput struct {
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	FeeAmount      string `json:"fee_amount"`
	NetInput       string `json:"net_input"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
}

func newQuoteOutput(q amm.SwapQuote) quoteOutput {
	return quoteOutput{
		AmountIn:       q.AmountIn.Dec(),
		AmountOut:      q.AmountOut.Dec(),
		FeeAmount:      q.FeeAmount.Dec(),
		NetInput:       q.NetInput.Dec(),
		PriceImpactBps: q.PriceImpactBps,
	}
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	reserveIn, err := fixedpoint.ParseAmount(cfg.ReserveIn)
	if err != nil {
		return fmt.Errorf("reserve-in: %w", err)
	}
	reserveOut, err := fixedpoint.ParseAmount(cfg.ReserveOut)
	if err != nil {
		return fmt.Errorf("reserve-out: %w", err)
	}
	amount, err := fixedpoint.ParseAmount(cfg.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	pool, err := amm.NewPool(quoteAssetIn, quoteAssetOut)
	if err != nil {
		return err
	}
	if _, err := amm.Initialize(pool, reserveIn, reserveOut, cfg.FeeBps); err != nil {
		return err
	}

	var q amm.SwapQuote
	if cfg.ExactOut {
		q, err = amm.QuoteExactOutput(pool, true, amount)
	} else {
		q, err = amm.QuoteExactInput(pool, true, amount)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(newQuoteOutput(q))
}
