package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// QuoteConfig holds the inputs for an offline arbitrage quote.
type QuoteConfig struct {
	ReservesX    []string
	ReservesY    []string
	FeeBps       uint16
	ToleranceBps uint16
	BalanceA     string
	BalanceB     string
}

// LoadQuote reads reserves as "reserveA,reserveB" pairs.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{"fee-bps": 30})
	if err != nil {
		return QuoteConfig{}, err
	}

	fee, err := getUint16(v, "fee-bps")
	if err != nil {
		return QuoteConfig{}, err
	}
	tolerance, err := getUint16(v, "tolerance-bps")
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		ReservesX:    getStringSlice(v, "reserves-x"),
		ReservesY:    getStringSlice(v, "reserves-y"),
		FeeBps:       fee,
		ToleranceBps: tolerance,
		BalanceA:     v.GetString("balance-a"),
		BalanceB:     v.GetString("balance-b"),
	}
	if len(cfg.ReservesX) != 2 || len(cfg.ReservesY) != 2 {
		return QuoteConfig{}, fmt.Errorf("reserves-x and reserves-y need two values each")
	}
	return cfg, nil
}
