package model

// PoolMetrics are display figures for one pool after an operation. Ratios are
// fixed-point decimal strings; TVL is denominated in token A.
type PoolMetrics struct {
	TVL              string `json:"tvl"`
	SpotPrice        string `json:"spot_price"`
	Slippage         string `json:"slippage_pct,omitempty"`
	TradeLotFraction string `json:"trade_lot_fraction,omitempty"`
	FeeRateA         string `json:"fee_rate_a,omitempty"`
	FeeRateB         string `json:"fee_rate_b,omitempty"`
}

// PoolWindowMetrics aggregates one replay batch for a pool.
type PoolWindowMetrics struct {
	Pool        string `json:"pool"`
	FirstSeq    uint64 `json:"first_seq"`
	LastSeq     uint64 `json:"last_seq"`
	SwapCount   uint64 `json:"swap_count"`
	FailedCount uint64 `json:"failed_count"`
	VolumeA     string `json:"volume_a"`
	VolumeB     string `json:"volume_b"`
	FeeA        string `json:"fee_a"`
	FeeB        string `json:"fee_b"`
	TVL         string `json:"tvl"`
	SpotPrice   string `json:"spot_price"`
	FeeRateA    string `json:"fee_rate_a,omitempty"`
	FeeRateB    string `json:"fee_rate_b,omitempty"`
}
