package model

import "encoding/json"

// Event kinds emitted after a committed operation.
const (
	EventInitialize = "initialize"
	EventMint       = "mint"
	EventBurn       = "burn"
	EventSwap       = "swap"
)

// Event is a committed state change with the post-commit reserves.
type Event struct {
	Seq       uint64       `json:"seq"`
	Kind      string       `json:"kind"`
	Pool      string       `json:"pool"`
	Account   string       `json:"account"`
	Timestamp uint64       `json:"timestamp"`
	Data      interface{}  `json:"data"`
	Reserves  PoolReserves `json:"reserves"`
}

// EventRecord is the JSON form of Event read back for aggregation.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	Pool      string          `json:"pool"`
	Account   string          `json:"account"`
	Timestamp uint64          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Reserves  PoolReserves    `json:"reserves"`
}

// PoolReserves is the pool state right after the event.
type PoolReserves struct {
	TokenA         string `json:"token_a"`
	TokenB         string `json:"token_b"`
	LiquidityToken string `json:"liquidity_token"`
	ReserveA       string `json:"reserve_a"`
	ReserveB       string `json:"reserve_b"`
	TotalLiquidity string `json:"total_liquidity"`
	FeeBps         uint64 `json:"fee_bps"`
}

// InitializeEventData is the payload of a bootstrap.
type InitializeEventData struct {
	AmountA   string `json:"amount_a"`
	AmountB   string `json:"amount_b"`
	Liquidity string `json:"liquidity"`
}

// MintEventData is the payload of a deposit.
type MintEventData struct {
	AmountA   string `json:"amount_a"`
	AmountB   string `json:"amount_b"`
	Liquidity string `json:"liquidity"`
}

// BurnEventData is the payload of a withdrawal.
type BurnEventData struct {
	AmountA   string `json:"amount_a"`
	AmountB   string `json:"amount_b"`
	Liquidity string `json:"liquidity"`
}

// SwapEventData is the payload of a trade.
type SwapEventData struct {
	TokenIn        string `json:"token_in"`
	TokenOut       string `json:"token_out"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	FeeAmount      string `json:"fee_amount"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
}
