package model

// Operation kinds accepted by the replay driver.
const (
	OpMint            = "mint"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
	OpArbitrage       = "arbitrage"
)

// OperationRequest is one line of an operations JSONL file. Amounts are
// decimal or 0x-prefixed hex strings in the token's smallest unit.
type OperationRequest struct {
	Op       string `json:"op"`
	Pool     string `json:"pool,omitempty"`
	Account  string `json:"account"`
	Token    string `json:"token,omitempty"`
	TokenIn  string `json:"token_in,omitempty"`
	TokenOut string `json:"token_out,omitempty"`
	Amount   string `json:"amount,omitempty"`
	AmountA  string `json:"amount_a,omitempty"`
	AmountB  string `json:"amount_b,omitempty"`
	Shares   string `json:"shares,omitempty"`
	MinOut   string `json:"min_out,omitempty"`
}

// OperationResult records the outcome of one applied operation. Failed
// operations carry Error and no amounts.
type OperationResult struct {
	Seq        uint64       `json:"seq"`
	Op         string       `json:"op"`
	Pool       string       `json:"pool,omitempty"`
	Account    string       `json:"account"`
	OK         bool         `json:"ok"`
	Error      string       `json:"error,omitempty"`
	AmountIn   string       `json:"amount_in,omitempty"`
	AmountOut  string       `json:"amount_out,omitempty"`
	AmountA    string       `json:"amount_a,omitempty"`
	AmountB    string       `json:"amount_b,omitempty"`
	Shares     string       `json:"shares,omitempty"`
	StartToken string       `json:"start_token,omitempty"`
	Profit     string       `json:"profit,omitempty"`
	Executed   *bool        `json:"executed,omitempty"`
	Metrics    *PoolMetrics `json:"metrics,omitempty"`
	AppliedAt  string       `json:"applied_at"`
}
