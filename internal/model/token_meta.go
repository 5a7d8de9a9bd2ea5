package model

// TokenMeta describes an ERC20 token traded by a remote pool. Symbol is empty
// when the token does not implement it.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}
