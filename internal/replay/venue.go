package replay

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/arbitrage"
	"ammScope/internal/ledger"
	"ammScope/internal/metrics"
	"ammScope/internal/model"
)

// PoolSpec names one pool of the venue.
type PoolSpec struct {
	Name   string
	FeeBps uint16
}

// VenueConfig describes the pools a replay trades against. All pools list
// the same token pair. ArbPoolX and ArbPoolY are optional; without them
// arbitrage operations fail.
type VenueConfig struct {
	TokenA       common.Address
	TokenB       common.Address
	Pools        []PoolSpec
	ArbPoolX     string
	ArbPoolY     string
	ToleranceBps uint16
}

// Venue is a set of pools sharing one ledger.
type Venue struct {
	cfg      VenueConfig
	ledger   *ledger.Ledger
	order    []string
	managers map[string]*amm.LiquidityManager
	arb      *arbitrage.Engine
	logger   *zap.Logger
}

// NewVenue creates empty pools for every spec.
func NewVenue(cfg VenueConfig, logger *zap.Logger) (*Venue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Pools) == 0 {
		return nil, fmt.Errorf("at least one pool is required")
	}

	v := &Venue{
		cfg:      cfg,
		ledger:   ledger.NewLedger(),
		managers: make(map[string]*amm.LiquidityManager, len(cfg.Pools)),
		logger:   logger,
	}
	for _, spec := range cfg.Pools {
		if _, ok := v.managers[spec.Name]; ok {
			return nil, fmt.Errorf("duplicate pool %q", spec.Name)
		}
		pool, err := amm.NewPool(amm.PoolConfig{
			Name:   spec.Name,
			TokenA: cfg.TokenA,
			TokenB: cfg.TokenB,
			FeeBps: spec.FeeBps,
		}, v.ledger, logger)
		if err != nil {
			return nil, err
		}
		v.managers[spec.Name] = amm.NewLiquidityManager(pool)
		v.order = append(v.order, spec.Name)
	}

	if cfg.ArbPoolX != "" || cfg.ArbPoolY != "" {
		x, err := v.pool(cfg.ArbPoolX)
		if err != nil {
			return nil, fmt.Errorf("arbitrage pool x: %w", err)
		}
		y, err := v.pool(cfg.ArbPoolY)
		if err != nil {
			return nil, fmt.Errorf("arbitrage pool y: %w", err)
		}
		v.arb, err = arbitrage.NewEngine(x, y, arbitrage.Config{ToleranceBps: cfg.ToleranceBps}, logger)
		if err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Ledger exposes the shared balance book.
func (v *Venue) Ledger() *ledger.Ledger { return v.ledger }

// Pool looks up a pool by name.
func (v *Venue) Pool(name string) (*amm.Pool, bool) {
	m, ok := v.managers[name]
	if !ok {
		return nil, false
	}
	return m.Pool(), true
}

// Snapshots returns every pool in configuration order, stamped with seq.
func (v *Venue) Snapshots(seq uint64) []model.PoolSnapshot {
	out := make([]model.PoolSnapshot, 0, len(v.order))
	for _, name := range v.order {
		snap := v.managers[name].Pool().Snapshot()
		snap.Seq = seq
		out = append(out, snap)
	}
	return out
}

// Touched lists the pools an operation may have changed.
func (v *Venue) Touched(req model.OperationRequest) []string {
	switch req.Op {
	case model.OpArbitrage:
		if v.arb == nil {
			return nil
		}
		return []string{v.cfg.ArbPoolX, v.cfg.ArbPoolY}
	case model.OpMint:
		return nil
	}
	if _, ok := v.managers[req.Pool]; !ok {
		return nil
	}
	return []string{req.Pool}
}

// Apply runs one operation. Failures are reported in the result and leave
// the venue unchanged.
func (v *Venue) Apply(seq uint64, req model.OperationRequest) model.OperationResult {
	res := model.OperationResult{Seq: seq, Op: req.Op, Pool: req.Pool, Account: req.Account}

	var err error
	switch req.Op {
	case model.OpMint:
		err = v.mint(req, &res)
	case model.OpAddLiquidity:
		err = v.addLiquidity(req, &res)
	case model.OpRemoveLiquidity:
		err = v.removeLiquidity(req, &res)
	case model.OpSwap:
		err = v.swap(req, &res)
	case model.OpArbitrage:
		err = v.arbitrage(req, &res)
	default:
		err = fmt.Errorf("unknown op %q", req.Op)
	}

	if err != nil {
		v.logger.Debug("operation failed", zap.Uint64("seq", seq), zap.String("op", req.Op), zap.Error(err))
		return model.OperationResult{Seq: seq, Op: req.Op, Pool: req.Pool, Account: req.Account, Error: err.Error()}
	}
	res.OK = true
	return res
}

func (v *Venue) mint(req model.OperationRequest, res *model.OperationResult) error {
	account, err := ParseAddress(req.Account)
	if err != nil {
		return err
	}
	token, err := v.token(req.Token)
	if err != nil {
		return err
	}
	// LP shares only come from deposits, and pool balances only move with reserves.
	if token != v.cfg.TokenA && token != v.cfg.TokenB {
		return fmt.Errorf("%w: mint only issues token A or B, got %s", amm.ErrInvalidToken, token.Hex())
	}
	if name, ok := v.poolAccount(account); ok {
		return fmt.Errorf("mint to pool %s account %s refused", name, account.Hex())
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return amm.ErrZeroAmount
	}
	if err := v.ledger.Mint(token, account, amount); err != nil {
		return err
	}
	res.AmountIn = amount.Dec()
	return nil
}

func (v *Venue) addLiquidity(req model.OperationRequest, res *model.OperationResult) error {
	m, account, err := v.manager(req)
	if err != nil {
		return err
	}
	amountA, err := ParseAmount(req.AmountA)
	if err != nil {
		return err
	}
	amountB, err := ParseAmount(req.AmountB)
	if err != nil {
		return err
	}
	dep, err := m.AddLiquidity(amountA, amountB, account)
	if err != nil {
		return err
	}
	res.Shares = dep.Shares.Dec()
	res.AmountA = dep.UsedA.Dec()
	res.AmountB = dep.UsedB.Dec()
	res.Metrics = poolMetrics(m.Pool())
	return nil
}

func (v *Venue) removeLiquidity(req model.OperationRequest, res *model.OperationResult) error {
	m, account, err := v.manager(req)
	if err != nil {
		return err
	}
	shares, err := ParseAmount(req.Shares)
	if err != nil {
		return err
	}
	a, b, err := m.RemoveLiquidity(shares, account)
	if err != nil {
		return err
	}
	res.Shares = shares.Dec()
	res.AmountA = a.Dec()
	res.AmountB = b.Dec()
	res.Metrics = poolMetrics(m.Pool())
	return nil
}

func (v *Venue) swap(req model.OperationRequest, res *model.OperationResult) error {
	m, account, err := v.manager(req)
	if err != nil {
		return err
	}
	pool := m.Pool()
	tokenIn, err := v.token(req.TokenIn)
	if err != nil {
		return err
	}
	tokenOut := pool.TokenB()
	if tokenIn == pool.TokenB() {
		tokenOut = pool.TokenA()
	}
	if req.TokenOut != "" {
		if tokenOut, err = v.token(req.TokenOut); err != nil {
			return err
		}
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	minOut, err := ParseAmount(req.MinOut)
	if err != nil {
		return err
	}

	before := pool.Snapshot()
	balA, balB := v.balances(pool, account)
	out, err := pool.SwapWithMin(tokenIn, tokenOut, amount, minOut, account)
	if err != nil {
		return err
	}
	afterA, afterB := v.balances(pool, account)

	res.AmountIn = amount.Dec()
	res.AmountOut = out.Dec()
	res.Metrics = poolMetrics(pool)
	res.Metrics.Slippage, res.Metrics.TradeLotFraction = metrics.Slippage(before,
		new(big.Int).Sub(afterA, balA), new(big.Int).Sub(afterB, balB))
	return nil
}

func (v *Venue) arbitrage(req model.OperationRequest, res *model.OperationResult) error {
	if v.arb == nil {
		return errors.New("no arbitrage pools configured")
	}
	account, err := ParseAddress(req.Account)
	if err != nil {
		return err
	}
	out, err := v.arb.CalculateAndExecute(account)
	if err != nil {
		return err
	}
	executed := out.Executed
	res.Executed = &executed
	res.Pool = v.cfg.ArbPoolX + "," + v.cfg.ArbPoolY
	if !executed {
		return nil
	}
	res.StartToken = out.StartToken.Hex()
	res.AmountIn = out.AmountIn.Dec()
	res.AmountOut = out.AmountOut.Dec()
	res.Profit = out.Profit.Dec()
	return nil
}

func (v *Venue) pool(name string) (*amm.Pool, error) {
	p, ok := v.Pool(name)
	if !ok {
		return nil, fmt.Errorf("unknown pool %q: %w", name, amm.ErrInvalidPool)
	}
	return p, nil
}

func (v *Venue) manager(req model.OperationRequest) (*amm.LiquidityManager, common.Address, error) {
	m, ok := v.managers[req.Pool]
	if !ok {
		return nil, common.Address{}, fmt.Errorf("unknown pool %q: %w", req.Pool, amm.ErrInvalidPool)
	}
	account, err := ParseAddress(req.Account)
	if err != nil {
		return nil, common.Address{}, err
	}
	return m, account, nil
}

// poolAccount reports whether addr is a pool or LP-token address of the venue.
func (v *Venue) poolAccount(addr common.Address) (string, bool) {
	for _, name := range v.order {
		pool := v.managers[name].Pool()
		if addr == pool.Address() || addr == pool.LPToken() {
			return name, true
		}
	}
	return "", false
}

// token resolves "a", "b" or a hex address.
func (v *Venue) token(input string) (common.Address, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "a":
		return v.cfg.TokenA, nil
	case "b":
		return v.cfg.TokenB, nil
	}
	addr, err := ParseAddress(input)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", amm.ErrInvalidToken, input)
	}
	return addr, nil
}

func (v *Venue) balances(pool *amm.Pool, account common.Address) (*big.Int, *big.Int) {
	return v.ledger.BalanceOf(pool.TokenA(), account).ToBig(), v.ledger.BalanceOf(pool.TokenB(), account).ToBig()
}

func poolMetrics(pool *amm.Pool) *model.PoolMetrics {
	m := metrics.ForSnapshot(pool.Snapshot())
	return &m
}
