package model

// Operation kinds accepted in a journal.
const (
	OpInitialize   = "initialize"
	OpAdd          = "add"
	OpRemove       = "remove"
	OpSwap         = "swap"
	OpSwapExactOut = "swap_exact_out"
	OpCredit       = "credit"
)

// Operation is one journal line. Amounts are base-10 strings.
//
// Amount is the input for swap, the output for swap_exact_out, the
// liquidity for remove and the credited balance for credit. Limit is the
// minimum output (swap) or maximum input (swap_exact_out).
type Operation struct {
	Op        string `json:"op"`
	Account   string `json:"account"`
	TokenA    string `json:"token_a,omitempty"`
	TokenB    string `json:"token_b,omitempty"`
	TokenIn   string `json:"token_in,omitempty"`
	Asset     string `json:"asset,omitempty"`
	AmountA   string `json:"amount_a,omitempty"`
	AmountB   string `json:"amount_b,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Limit     string `json:"limit,omitempty"`
	FeeBps    uint64 `json:"fee_bps,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// Rejection records a journal line the engine refused.
type Rejection struct {
	Line    uint64 `json:"line"`
	Op      string `json:"op"`
	Account string `json:"account"`
	Error   string `json:"error"`
}
