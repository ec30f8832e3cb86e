package model

// PoolSnapshot is a pool row for storage.
type PoolSnapshot struct {
	Address        string `json:"address"`
	TokenA         string `json:"token_a"`
	TokenB         string `json:"token_b"`
	LiquidityToken string `json:"liquidity_token"`
	ReserveA       string `json:"reserve_a"`
	ReserveB       string `json:"reserve_b"`
	TotalLiquidity string `json:"total_liquidity"`
	FeeBps         uint64 `json:"fee_bps"`
	LastSeq        uint64 `json:"last_seq"`
}

// PairReserves is the on-chain state of a Uniswap V2 pair.
type PairReserves struct {
	Pair        string `json:"pair"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	BlockNumber uint64 `json:"block_number"`
}

// Snapshot is the pool row implied by the event's post-commit reserves.
func (e Event) Snapshot() PoolSnapshot {
	return PoolSnapshot{
		Address:        e.Pool,
		TokenA:         e.Reserves.TokenA,
		TokenB:         e.Reserves.TokenB,
		LiquidityToken: e.Reserves.LiquidityToken,
		ReserveA:       e.Reserves.ReserveA,
		ReserveB:       e.Reserves.ReserveB,
		TotalLiquidity: e.Reserves.TotalLiquidity,
		FeeBps:         e.Reserves.FeeBps,
		LastSeq:        e.Seq,
	}
}

// LatestSnapshots keeps the highest-seq snapshot per pool, ordered by first
// appearance in events.
func LatestSnapshots(events []Event) []PoolSnapshot {
	index := make(map[string]int)
	var out []PoolSnapshot
	for _, e := range events {
		snap := e.Snapshot()
		if i, ok := index[e.Pool]; ok {
			if snap.LastSeq > out[i].LastSeq {
				out[i] = snap
			}
			continue
		}
		index[e.Pool] = len(out)
		out = append(out, snap)
	}
	return out
}
