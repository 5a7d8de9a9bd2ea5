package config

import (
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for replaying an operations file.
type ReplayConfig struct {
	Input             string
	Out               string
	Snapshots         string
	Windows           string
	Checkpoint        string
	CheckpointEnabled bool
	BatchSize         uint64
	PGDSN             string
	RunName           string
	TokenA            string
	TokenB            string
	Pools             []PoolEntry
	ArbPoolX          string
	ArbPoolY          string
	ToleranceBps      uint16
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"out":                "./data/results.jsonl",
		"snapshots":          "./data/snapshots.jsonl",
		"windows":            "./data/windows.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"batch-size":         uint64(100),
		"run-name":           "default",
		"fee-bps":            30,
		"pools":              []string{"x", "y"},
		"arb-pool-x":         "x",
		"arb-pool-y":         "y",
		"log-level":          "info",
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	fee, err := getUint16(v, "fee-bps")
	if err != nil {
		return ReplayConfig{}, err
	}
	tolerance, err := getUint16(v, "tolerance-bps")
	if err != nil {
		return ReplayConfig{}, err
	}
	pools, err := ParsePools(getStringSlice(v, "pools"), fee)
	if err != nil {
		return ReplayConfig{}, err
	}

	return ReplayConfig{
		Input:             v.GetString("in"),
		Out:               v.GetString("out"),
		Snapshots:         v.GetString("snapshots"),
		Windows:           v.GetString("windows"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		BatchSize:         v.GetUint64("batch-size"),
		PGDSN:             v.GetString("pg-dsn"),
		RunName:           v.GetString("run-name"),
		TokenA:            v.GetString("token-a"),
		TokenB:            v.GetString("token-b"),
		Pools:             pools,
		ArbPoolX:          v.GetString("arb-pool-x"),
		ArbPoolY:          v.GetString("arb-pool-y"),
		ToleranceBps:      tolerance,
		LogLevel:          v.GetString("log-level"),
	}, nil
}
