package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"ammScope/internal/amm"
	"ammScope/internal/arbitrage"
	"ammScope/internal/model"
	"ammScope/internal/replay"
)

type planReport struct {
	Pools           []poolReport `json:"pools,omitempty"`
	Opportunity     bool         `json:"opportunity"`
	Reason          string       `json:"reason,omitempty"`
	StartToken      string       `json:"start_token,omitempty"`
	FirstPool       string       `json:"first_pool,omitempty"`
	AmountIn        string       `json:"amount_in,omitempty"`
	IntermediateOut string       `json:"intermediate_out,omitempty"`
	AmountOut       string       `json:"amount_out,omitempty"`
	Profit          string       `json:"profit,omitempty"`
}

type poolReport struct {
	Snapshot model.PoolSnapshot `json:"snapshot"`
	Metrics  model.PoolMetrics  `json:"metrics"`
}

// planAndReport runs the planner and describes its outcome. Only invalid
// inputs are returned as errors.
func planAndReport(x, y amm.State, balanceA, balanceB *uint256.Int, cfg arbitrage.Config) (planReport, error) {
	opp, err := arbitrage.Plan(x, y, balanceA, balanceB, cfg)
	switch {
	case err == nil:
	case errors.Is(err, arbitrage.ErrNoOpportunity),
		errors.Is(err, arbitrage.ErrUnprofitable),
		errors.Is(err, amm.ErrInsufficientBalance):
		return planReport{Reason: err.Error()}, nil
	default:
		return planReport{}, err
	}

	first := "y"
	if opp.FirstIsX {
		first = "x"
	}
	return planReport{
		Opportunity:     true,
		StartToken:      opp.StartToken.Hex(),
		FirstPool:       first,
		AmountIn:        opp.AmountIn.Dec(),
		IntermediateOut: opp.IntermediateOut.Dec(),
		AmountOut:       opp.AmountOut.Dec(),
		Profit:          opp.Profit.Dec(),
	}, nil
}

// parseBalances treats two empty inputs as unbounded funds and a single
// empty input as zero.
func parseBalances(a, b string) (*uint256.Int, *uint256.Int, error) {
	if a == "" && b == "" {
		unbounded := new(uint256.Int).SetAllOne()
		return unbounded, unbounded.Clone(), nil
	}
	balanceA, err := replay.ParseAmount(a)
	if err != nil {
		return nil, nil, fmt.Errorf("balance-a: %w", err)
	}
	balanceB, err := replay.ParseAmount(b)
	if err != nil {
		return nil, nil, fmt.Errorf("balance-b: %w", err)
	}
	return balanceA, balanceB, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
