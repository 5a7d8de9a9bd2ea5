package model

// PoolSnapshot is a consistent point-in-time view of one pool for storage.
// Amounts are decimal strings in the token's smallest unit.
type PoolSnapshot struct {
	Seq      uint64 `json:"seq"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	LPToken  string `json:"lp_token"`
	TokenA   string `json:"token_a"`
	TokenB   string `json:"token_b"`
	FeeBps   uint16 `json:"fee_bps"`
	ReserveA string `json:"reserve_a"`
	ReserveB string `json:"reserve_b"`
	LPSupply string `json:"lp_supply"`
	VolumeA  string `json:"volume_a"`
	VolumeB  string `json:"volume_b"`
	FeeA     string `json:"fee_a"`
	FeeB     string `json:"fee_b"`

	// LPHoldings maps each provider address to the LP shares it holds.
	LPHoldings map[string]string `json:"lp_holdings,omitempty"`
}
