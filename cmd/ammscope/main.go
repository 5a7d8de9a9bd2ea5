package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammscope",
		Short:        "Constant-product AMM simulator and arbitrage planner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operations file against simulated pools",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/results.jsonl", "operation results JSONL")
	replayCmd.Flags().String("snapshots", "./data/snapshots.jsonl", "pool snapshots JSONL (empty disables)")
	replayCmd.Flags().String("windows", "./data/windows.jsonl", "per-batch pool metrics JSONL (empty disables)")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Uint64("batch-size", 100, "operations per batch")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN; replay state is kept in the database when set")
	replayCmd.Flags().String("run-name", "default", "run name used for database rows and replay state")
	replayCmd.Flags().String("token-a", "", "token A address (derived when empty)")
	replayCmd.Flags().String("token-b", "", "token B address (derived when empty)")
	replayCmd.Flags().StringSlice("pools", []string{"x", "y"}, "pools as name[:fee_bps] (comma-separated)")
	replayCmd.Flags().Uint16("fee-bps", 30, "fee for pools listed without one")
	replayCmd.Flags().String("arb-pool-x", "x", "first arbitrage pool (empty disables arbitrage)")
	replayCmd.Flags().String("arb-pool-y", "y", "second arbitrage pool")
	replayCmd.Flags().Uint16("tolerance-bps", 0, "price gap treated as no opportunity")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read two deployed DEX pools and plan an arbitrage between them",
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("rpc", "", "RPC URL")
	inspectCmd.Flags().String("pool-x", "", "first DEX contract address")
	inspectCmd.Flags().String("pool-y", "", "second DEX contract address")
	inspectCmd.Flags().Uint16("fee-bps", 30, "pool fee in basis points")
	inspectCmd.Flags().Uint16("tolerance-bps", 0, "price gap treated as no opportunity")
	inspectCmd.Flags().String("balance-a", "", "token A available to the arbitrageur (both empty means unbounded)")
	inspectCmd.Flags().String("balance-b", "", "token B available to the arbitrageur")
	inspectCmd.Flags().Uint64("block", 0, "block to read, 0 means latest")
	inspectCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	inspectCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(inspectCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Plan an arbitrage between two pools given their reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().StringSlice("reserves-x", nil, "reserveA,reserveB of the first pool")
	quoteCmd.Flags().StringSlice("reserves-y", nil, "reserveA,reserveB of the second pool")
	quoteCmd.Flags().Uint16("fee-bps", 30, "fee of both pools in basis points")
	quoteCmd.Flags().Uint16("tolerance-bps", 0, "price gap treated as no opportunity")
	quoteCmd.Flags().String("balance-a", "", "token A available (both empty means unbounded)")
	quoteCmd.Flags().String("balance-b", "", "token B available")

	root.AddCommand(quoteCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
