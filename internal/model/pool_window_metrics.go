package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Amounts are
// raw base-10 integers in each asset's smallest unit.
type PoolWindowMetrics struct {
	PoolAddress    string    `json:"pool_address"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	Volume0        string    `json:"volume0"`
	Volume1        string    `json:"volume1"`
	Fee0           string    `json:"fee0"`
	Fee1           string    `json:"fee1"`
	FeeRate0       *string   `json:"fee_rate0,omitempty"`
	FeeRate1       *string   `json:"fee_rate1,omitempty"`
	TVL0           string    `json:"tvl0"`
	TVL1           string    `json:"tvl1"`
	APR            *string   `json:"apr,omitempty"`
}
