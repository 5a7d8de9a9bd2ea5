package amm

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammScope/internal/ledger"
	"ammScope/internal/model"
)

// PoolConfig describes a constant-product pool. Address and LPToken are
// derived from Name when left zero.
type PoolConfig struct {
	Name    string
	TokenA  common.Address
	TokenB  common.Address
	FeeBps  uint16
	Address common.Address
	LPToken common.Address
}

// State is a reserve snapshot detached from any pool.
type State struct {
	TokenA   common.Address
	TokenB   common.Address
	ReserveA *uint256.Int
	ReserveB *uint256.Int
	FeeBps   uint16
}

// Reserve returns the reserve held for token.
func (s State) Reserve(token common.Address) (*uint256.Int, error) {
	switch token {
	case s.TokenA:
		return s.ReserveA, nil
	case s.TokenB:
		return s.ReserveB, nil
	default:
		return nil, fmt.Errorf("%s: %w", token.Hex(), ErrInvalidToken)
	}
}

// Pool is a two-token constant-product pool holding its reserves in a Ledger.
type Pool struct {
	mu sync.RWMutex

	cfg    PoolConfig
	ledger *ledger.Ledger
	logger *zap.Logger

	reserveA *uint256.Int
	reserveB *uint256.Int
	lpSupply *uint256.Int
	fees     *FeeTracker
}

func NewPool(cfg PoolConfig, l *ledger.Ledger, logger *zap.Logger) (*Pool, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("pool name is required: %w", ErrInvalidPool)
	}
	zero := common.Address{}
	if cfg.TokenA == zero || cfg.TokenB == zero || cfg.TokenA == cfg.TokenB {
		return nil, fmt.Errorf("pool %s tokens must be distinct and non-zero: %w", cfg.Name, ErrInvalidPool)
	}
	if int(cfg.FeeBps) >= FeeDenominator {
		return nil, fmt.Errorf("pool %s fee %d bps: %w", cfg.Name, cfg.FeeBps, ErrInvalidPool)
	}
	if cfg.Address == zero {
		cfg.Address = DeriveAddress(cfg.Name, "pool")
	}
	if cfg.LPToken == zero {
		cfg.LPToken = DeriveAddress(cfg.Name, "lp")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		cfg:      cfg,
		ledger:   l,
		logger:   logger.With(zap.String("pool", cfg.Name)),
		reserveA: uint256.NewInt(0),
		reserveB: uint256.NewInt(0),
		lpSupply: uint256.NewInt(0),
		fees:     NewFeeTracker(cfg.TokenA, cfg.TokenB),
	}, nil
}

// DeriveAddress returns a stable address for a named pool role.
func DeriveAddress(name, role string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("ammscope:" + role + ":" + name)))
}

func (p *Pool) Name() string { return p.cfg.Name }
func (p *Pool) Address() common.Address { return p.cfg.Address }
func (p *Pool) LPToken() common.Address { return p.cfg.LPToken }
func (p *Pool) TokenA() common.Address { return p.cfg.TokenA }
func (p *Pool) TokenB() common.Address { return p.cfg.TokenB }
func (p *Pool) FeeBps() uint16 { return p.cfg.FeeBps }
func (p *Pool) Ledger() *ledger.Ledger { return p.ledger }

// SpotPrice reports the current reserves; the price is reserveA/reserveB.
func (p *Pool) SpotPrice() (*uint256.Int, *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone(), p.reserveB.Clone()
}

// GetReserve returns the reserve of one pool token.
func (p *Pool) GetReserve(token common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch token {
	case p.cfg.TokenA:
		return p.reserveA.Clone(), nil
	case p.cfg.TokenB:
		return p.reserveB.Clone(), nil
	default:
		return nil, fmt.Errorf("%s: %w", token.Hex(), ErrInvalidToken)
	}
}

// SwapVolumes returns cumulative gross swap input per token (get_swaps_vol).
func (p *Pool) SwapVolumes() (*uint256.Int, *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fees.SwapVolumes()
}

// TotalFees returns cumulative retained fees per token (get_total_fees).
func (p *Pool) TotalFees() (*uint256.Int, *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fees.TotalFees()
}

// LPSupply returns the outstanding LP shares.
func (p *Pool) LPSupply() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lpSupply.Clone()
}

// State returns the current reserves as a detached State.
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stateLocked()
}

func (p *Pool) stateLocked() State {
	return State{
		TokenA:   p.cfg.TokenA,
		TokenB:   p.cfg.TokenB,
		ReserveA: p.reserveA.Clone(),
		ReserveB: p.reserveB.Clone(),
		FeeBps:   p.cfg.FeeBps,
	}
}

// Snapshot returns all counters from a single consistent read.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	volA, volB := p.fees.SwapVolumes()
	feeA, feeB := p.fees.TotalFees()
	return model.PoolSnapshot{
		Name:     p.cfg.Name,
		Address:  p.cfg.Address.Hex(),
		LPToken:  p.cfg.LPToken.Hex(),
		TokenA:   p.cfg.TokenA.Hex(),
		TokenB:   p.cfg.TokenB.Hex(),
		FeeBps:   p.cfg.FeeBps,
		ReserveA: p.reserveA.Dec(),
		ReserveB: p.reserveB.Dec(),
		LPSupply: p.lpSupply.Dec(),
		VolumeA:  volA.Dec(),
		VolumeB:  volB.Dec(),
		FeeA:     feeA.Dec(),
		FeeB:     feeB.Dec(),

		LPHoldings: p.lpHoldingsLocked(),
	}
}

func (p *Pool) lpHoldingsLocked() map[string]string {
	holders := p.ledger.Holders(p.cfg.LPToken)
	if len(holders) == 0 {
		return nil
	}
	out := make(map[string]string, len(holders))
	for _, account := range holders {
		out[account.Hex()] = p.ledger.BalanceOf(p.cfg.LPToken, account).Dec()
	}
	return out
}

// Quote prices a swap without changing any state.
func (p *Pool) Quote(tokenIn, tokenOut common.Address, amountIn *uint256.Int) (SwapQuote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stateLocked().quote(tokenIn, tokenOut, amountIn)
}

// Swap trades amountIn of tokenIn for tokenOut on behalf of caller.
func (p *Pool) Swap(tokenIn, tokenOut common.Address, amountIn *uint256.Int, caller common.Address) (*uint256.Int, error) {
	return p.SwapWithMin(tokenIn, tokenOut, amountIn, nil, caller)
}

// SwapWithMin is Swap with a lower bound on the output.
func (p *Pool) SwapWithMin(tokenIn, tokenOut common.Address, amountIn, minOut *uint256.Int, caller common.Address) (*uint256.Int, error) {
	outs, err := ExecuteRoute(caller, Leg{
		Pool:     p,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
		MinOut:   minOut,
	})
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

func (s State) quote(tokenIn, tokenOut common.Address, amountIn *uint256.Int) (SwapQuote, error) {
	if tokenIn == tokenOut {
		return SwapQuote{}, fmt.Errorf("token in equals token out: %w", ErrInvalidToken)
	}
	reserveIn, err := s.Reserve(tokenIn)
	if err != nil {
		return SwapQuote{}, err
	}
	reserveOut, err := s.Reserve(tokenOut)
	if err != nil {
		return SwapQuote{}, err
	}
	return QuoteExactIn(amountIn, reserveIn, reserveOut, s.FeeBps)
}

// apply returns the state after a quoted swap of tokenIn.
func (s State) apply(tokenIn common.Address, q SwapQuote) State {
	next := s
	if tokenIn == s.TokenA {
		next.ReserveA, next.ReserveB = q.NewReserveIn, q.NewReserveOut
	} else {
		next.ReserveB, next.ReserveA = q.NewReserveIn, q.NewReserveOut
	}
	return next
}

// QuoteState prices a swap against a detached State.
func QuoteState(s State, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (SwapQuote, State, error) {
	q, err := s.quote(tokenIn, tokenOut, amountIn)
	if err != nil {
		return SwapQuote{}, s, err
	}
	return q, s.apply(tokenIn, q), nil
}
