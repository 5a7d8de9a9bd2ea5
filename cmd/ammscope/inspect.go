package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/arbitrage"
	"ammScope/internal/chain"
	"ammScope/internal/config"
	"ammScope/internal/dex"
	"ammScope/internal/metrics"
	"ammScope/internal/replay"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	pools, err := replay.ParseAddresses([]string{cfg.PoolX, cfg.PoolY})
	if err != nil {
		return err
	}
	if len(pools) != 2 {
		return fmt.Errorf("pool-x and pool-y are required")
	}
	balanceA, balanceB, err := parseBalances(cfg.BalanceA, cfg.BalanceB)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	head, err := chainClient.Head(ctx, cfg.Block)
	if err != nil {
		return err
	}

	logger.Info("inspect start",
		zap.String("chain_id", head.ChainID.String()),
		zap.Uint64("block", head.Number),
		zap.String("pool_x", pools[0].Hex()),
		zap.String("pool_y", pools[1].Hex()),
		zap.Uint16("fee_bps", cfg.FeeBps),
	)

	reader := dex.NewReader(chainClient, dex.ReaderConfig{
		Block:        head.Number,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	states, err := reader.ReadAll(ctx, pools...)
	if err != nil {
		return err
	}
	stateX, stateY := states[0], states[1]

	report, err := planAndReport(stateX.State(cfg.FeeBps), stateY.State(cfg.FeeBps), balanceA, balanceB,
		arbitrage.Config{ToleranceBps: cfg.ToleranceBps})
	if err != nil {
		return err
	}
	for i, st := range states {
		snap := st.Snapshot([]string{"x", "y"}[i], cfg.FeeBps)
		snap.Seq = head.Number
		report.Pools = append(report.Pools, poolReport{Snapshot: snap, Metrics: metrics.ForSnapshot(snap)})
	}

	return writeJSON(cmd.OutOrStdout(), report)
}
