package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/config"
	"ammScope/internal/replay"
	"ammScope/internal/storage"
	"ammScope/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	venueCfg, err := buildVenueConfig(cfg)
	if err != nil {
		return err
	}
	venue, err := replay.NewVenue(venueCfg, logger)
	if err != nil {
		return err
	}

	ops, err := replay.ReadOperationsFile(cfg.Input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db    replay.DB
		state replay.StateStore = replay.NewCheckpointStore(cfg.Checkpoint, cfg.RunName, cfg.CheckpointEnabled)
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		db = store
		if cfg.CheckpointEnabled {
			state = replay.NewDBStateStore(store, "replay:"+cfg.RunName)
		}
	}

	runner := replay.NewRunner(replay.RunConfig{
		RunName:   cfg.RunName,
		BatchSize: cfg.BatchSize,
	}, venue, storage.NewJsonlStorage(cfg.Out, cfg.Snapshots, cfg.Windows), db, state, logger)

	logger.Info("replay start",
		zap.String("in", cfg.Input),
		zap.Int("operations", len(ops)),
		zap.Int("pools", len(venueCfg.Pools)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	return runner.Run(ctx, ops)
}

func buildVenueConfig(cfg config.ReplayConfig) (replay.VenueConfig, error) {
	tokenA, err := tokenAddress(cfg.TokenA, "A")
	if err != nil {
		return replay.VenueConfig{}, err
	}
	tokenB, err := tokenAddress(cfg.TokenB, "B")
	if err != nil {
		return replay.VenueConfig{}, err
	}

	pools := make([]replay.PoolSpec, 0, len(cfg.Pools))
	for _, p := range cfg.Pools {
		pools = append(pools, replay.PoolSpec{Name: p.Name, FeeBps: p.FeeBps})
	}

	venueCfg := replay.VenueConfig{
		TokenA:       tokenA,
		TokenB:       tokenB,
		Pools:        pools,
		ToleranceBps: cfg.ToleranceBps,
	}
	if cfg.ArbPoolX != "" {
		venueCfg.ArbPoolX, venueCfg.ArbPoolY = cfg.ArbPoolX, cfg.ArbPoolY
	}
	return venueCfg, nil
}

func tokenAddress(input, symbol string) (common.Address, error) {
	if input == "" {
		return amm.DeriveAddress(symbol, "token"), nil
	}
	return replay.ParseAddress(input)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
