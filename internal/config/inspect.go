package config

import (
	"time"

	"github.com/spf13/pflag"
)

// InspectConfig holds configuration for reading two deployed pools.
type InspectConfig struct {
	RPCURL       string
	PoolX        string
	PoolY        string
	FeeBps       uint16
	ToleranceBps uint16
	BalanceA     string
	BalanceB     string
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"fee-bps":       30,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return InspectConfig{}, err
	}

	fee, err := getUint16(v, "fee-bps")
	if err != nil {
		return InspectConfig{}, err
	}
	tolerance, err := getUint16(v, "tolerance-bps")
	if err != nil {
		return InspectConfig{}, err
	}

	return InspectConfig{
		RPCURL:       v.GetString("rpc"),
		PoolX:        v.GetString("pool-x"),
		PoolY:        v.GetString("pool-y"),
		FeeBps:       fee,
		ToleranceBps: tolerance,
		BalanceA:     v.GetString("balance-a"),
		BalanceB:     v.GetString("balance-b"),
		Block:        v.GetUint64("block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
