package amm

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammScope/internal/ledger"
)

// Leg is one exact-input swap of a route. A nil AmountIn spends the previous
// leg's output.
type Leg struct {
	Pool     *Pool
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *uint256.Int
	MinOut   *uint256.Int
}

// ExecuteRoute runs legs in order as one all-or-nothing operation. Every
// distinct pool is locked in ascending address order for the duration, so two
// routes over the same pools in opposite order cannot deadlock.
func ExecuteRoute(caller common.Address, legs ...Leg) ([]*uint256.Int, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("empty route")
	}
	if legs[0].AmountIn == nil {
		return nil, fmt.Errorf("first leg amount in: %w", ErrZeroAmount)
	}

	pools, err := distinctPools(legs)
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		p.mu.Lock()
	}
	defer func() {
		for i := len(pools) - 1; i >= 0; i-- {
			pools[i].mu.Unlock()
		}
	}()

	staged := make(map[*Pool]State, len(pools))
	fees := make(map[*Pool]*FeeTracker, len(pools))
	for _, p := range pools {
		staged[p] = p.stateLocked()
		fees[p] = p.fees.clone()
	}

	outs := make([]*uint256.Int, 0, len(legs))
	ops := make([]ledger.Op, 0, 2*len(legs))
	var prev *uint256.Int
	for i, leg := range legs {
		amountIn := leg.AmountIn
		if amountIn == nil {
			amountIn = prev
		}
		q, next, err := QuoteState(staged[leg.Pool], leg.TokenIn, leg.TokenOut, amountIn)
		if err != nil {
			return nil, fmt.Errorf("leg %d (%s): %w", i, leg.Pool.cfg.Name, err)
		}
		if leg.MinOut != nil && q.AmountOut.Lt(leg.MinOut) {
			return nil, fmt.Errorf("leg %d (%s): out %s below min %s: %w",
				i, leg.Pool.cfg.Name, q.AmountOut.Dec(), leg.MinOut.Dec(), ErrInsufficientOutput)
		}

		staged[leg.Pool] = next
		fees[leg.Pool].RecordSwap(leg.TokenIn, q.AmountIn, q.Fee)
		ops = append(ops,
			ledger.Move(leg.TokenIn, caller, leg.Pool.cfg.Address, q.AmountIn),
			ledger.Move(leg.TokenOut, leg.Pool.cfg.Address, caller, q.AmountOut),
		)
		outs = append(outs, q.AmountOut)
		prev = q.AmountOut
	}

	if err := pools[0].ledger.Apply(ops...); err != nil {
		return nil, err
	}

	for _, p := range pools {
		s := staged[p]
		p.reserveA = s.ReserveA
		p.reserveB = s.ReserveB
		p.fees = fees[p]
	}
	for i, leg := range legs {
		leg.Pool.logger.Debug("swap",
			zap.Int("leg", i),
			zap.String("caller", caller.Hex()),
			zap.String("token_in", leg.TokenIn.Hex()),
			zap.String("amount_out", outs[i].Dec()),
		)
	}
	return outs, nil
}

func distinctPools(legs []Leg) ([]*Pool, error) {
	seen := make(map[*Pool]struct{}, len(legs))
	pools := make([]*Pool, 0, len(legs))
	for i, leg := range legs {
		if leg.Pool == nil {
			return nil, fmt.Errorf("leg %d: pool is nil", i)
		}
		if _, ok := seen[leg.Pool]; ok {
			continue
		}
		seen[leg.Pool] = struct{}{}
		pools = append(pools, leg.Pool)
	}
	for _, p := range pools[1:] {
		if p.ledger != pools[0].ledger {
			return nil, ErrLedgerMismatch
		}
	}
	sortPools(pools)
	for i := 1; i < len(pools); i++ {
		if pools[i].cfg.Address == pools[i-1].cfg.Address {
			return nil, fmt.Errorf("pools %s and %s share address %s: %w",
				pools[i-1].cfg.Name, pools[i].cfg.Name, pools[i].cfg.Address.Hex(), ErrInvalidPool)
		}
	}
	return pools, nil
}

// sortPools orders pools by address; the lock order for multi-pool operations.
func sortPools(pools []*Pool) {
	sort.Slice(pools, func(i, j int) bool {
		return bytes.Compare(pools[i].cfg.Address.Bytes(), pools[j].cfg.Address.Bytes()) < 0
	})
}
