package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ammScope/internal/amm"
	"ammScope/internal/arbitrage"
	"ammScope/internal/config"
	"ammScope/internal/replay"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	x, err := reserveState("reserves-x", cfg.ReservesX, cfg.FeeBps)
	if err != nil {
		return err
	}
	y, err := reserveState("reserves-y", cfg.ReservesY, cfg.FeeBps)
	if err != nil {
		return err
	}
	balanceA, balanceB, err := parseBalances(cfg.BalanceA, cfg.BalanceB)
	if err != nil {
		return err
	}

	report, err := planAndReport(x, y, balanceA, balanceB, arbitrage.Config{ToleranceBps: cfg.ToleranceBps})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), report)
}

func reserveState(name string, reserves []string, feeBps uint16) (amm.State, error) {
	a, err := replay.ParseAmount(reserves[0])
	if err != nil {
		return amm.State{}, fmt.Errorf("%s: %w", name, err)
	}
	b, err := replay.ParseAmount(reserves[1])
	if err != nil {
		return amm.State{}, fmt.Errorf("%s: %w", name, err)
	}
	return amm.State{
		TokenA:   amm.DeriveAddress("A", "token"),
		TokenB:   amm.DeriveAddress("B", "token"),
		ReserveA: a,
		ReserveB: b,
		FeeBps:   feeBps,
	}, nil
}
