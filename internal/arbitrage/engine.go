package arbitrage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammScope/internal/amm"
)

// Result reports one arbitrage attempt. Executed is false when the pools were
// already priced alike; nothing changed in that case.
type Result struct {
	Executed        bool
	StartToken      common.Address
	AmountIn        *uint256.Int
	IntermediateOut *uint256.Int
	AmountOut       *uint256.Int
	// Profit is denominated in StartToken.
	Profit *uint256.Int
}

// Engine arbitrages a fixed pair of pools trading the same tokens.
type Engine struct {
	poolX  *amm.Pool
	poolY  *amm.Pool
	cfg    Config
	logger *zap.Logger
}

func NewEngine(poolX, poolY *amm.Pool, cfg Config, logger *zap.Logger) (*Engine, error) {
	if poolX == nil || poolY == nil {
		return nil, fmt.Errorf("arbitrage needs two pools: %w", amm.ErrInvalidPool)
	}
	if poolX == poolY || poolX.Address() == poolY.Address() {
		return nil, fmt.Errorf("pool %s paired with itself: %w", poolX.Name(), amm.ErrInvalidPool)
	}
	if poolX.Ledger() != poolY.Ledger() {
		return nil, amm.ErrLedgerMismatch
	}
	if err := samePair(poolX.State(), poolY.State()); err != nil {
		return nil, fmt.Errorf("pools %s/%s: %w", poolX.Name(), poolY.Name(), err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("pool_x", poolX.Name()), zap.String("pool_y", poolY.Name()))
	return &Engine{poolX: poolX, poolY: poolY, cfg: cfg, logger: logger}, nil
}

// DetectAndExecute runs a single arbitrage attempt over poolX and poolY.
func DetectAndExecute(poolX, poolY *amm.Pool, caller common.Address, cfg Config, logger *zap.Logger) (Result, error) {
	engine, err := NewEngine(poolX, poolY, cfg, logger)
	if err != nil {
		return Result{}, err
	}
	return engine.CalculateAndExecute(caller)
}

// CalculateAndExecute sizes the best round trip for caller's balances and runs
// both legs as one route. If the second leg cannot return more than was put
// in, the first leg is reverted with it.
func (e *Engine) CalculateAndExecute(caller common.Address) (Result, error) {
	opp, err := e.plan(caller)
	if errors.Is(err, ErrNoOpportunity) {
		e.logger.Debug("no arbitrage opportunity", zap.String("caller", caller.Hex()))
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return e.execute(caller, opp)
}

func (e *Engine) plan(caller common.Address) (Opportunity, error) {
	x, y := e.poolX.State(), e.poolY.State()
	l := e.poolX.Ledger()
	return Plan(x, y, l.BalanceOf(x.TokenA, caller), l.BalanceOf(x.TokenB, caller), e.cfg)
}

func (e *Engine) execute(caller common.Address, opp Opportunity) (Result, error) {
	first, second := e.poolX, e.poolY
	if !opp.FirstIsX {
		first, second = second, first
	}
	minOut, overflow := new(uint256.Int).AddOverflow(opp.AmountIn, uint256.NewInt(1))
	if overflow {
		return Result{}, ErrUnprofitable
	}

	outs, err := amm.ExecuteRoute(caller,
		amm.Leg{Pool: first, TokenIn: opp.StartToken, TokenOut: opp.MidToken, AmountIn: opp.AmountIn},
		amm.Leg{Pool: second, TokenIn: opp.MidToken, TokenOut: opp.StartToken, MinOut: minOut},
	)
	if err != nil {
		if errors.Is(err, amm.ErrInsufficientOutput) {
			return Result{}, fmt.Errorf("%w: %w", ErrUnprofitable, err)
		}
		return Result{}, fmt.Errorf("execute arbitrage: %w", err)
	}

	res := Result{
		Executed:        true,
		StartToken:      opp.StartToken,
		AmountIn:        opp.AmountIn.Clone(),
		IntermediateOut: outs[0],
		AmountOut:       outs[1],
		Profit:          new(uint256.Int).Sub(outs[1], opp.AmountIn),
	}
	e.logger.Info("arbitrage executed",
		zap.String("caller", caller.Hex()),
		zap.String("first", first.Name()),
		zap.String("start_token", res.StartToken.Hex()),
		zap.String("amount_in", res.AmountIn.Dec()),
		zap.String("amount_out", res.AmountOut.Dec()),
		zap.String("profit", res.Profit.Dec()),
	)
	return res, nil
}
