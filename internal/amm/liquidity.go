package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammScope/internal/ledger"
)

// Deposit is the outcome of AddLiquidity. UsedA and UsedB never exceed the
// offered amounts; the unused remainder stays with the caller.
type Deposit struct {
	Shares *uint256.Int
	UsedA  *uint256.Int
	UsedB  *uint256.Int
}

// LiquidityManager mints and burns LP shares against a pool's reserves.
type LiquidityManager struct {
	pool *Pool
}

func NewLiquidityManager(pool *Pool) *LiquidityManager {
	return &LiquidityManager{pool: pool}
}

// Pool returns the managed pool.
func (m *LiquidityManager) Pool() *Pool {
	return m.pool
}

// AddLiquidity deposits up to (amountA, amountB) from caller.
//
// An empty pool takes both amounts as offered and mints amountA shares, which
// fixes the initial price. Otherwise shares = min(a*S/Ra, b*S/Rb) and only
// ceil(shares*R/S) of each token is taken.
func (m *LiquidityManager) AddLiquidity(amountA, amountB *uint256.Int, caller common.Address) (Deposit, error) {
	if amountA == nil || amountB == nil || amountA.IsZero() || amountB.IsZero() {
		return Deposit{}, ErrZeroAmount
	}

	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireBalance(p.cfg.TokenA, caller, amountA); err != nil {
		return Deposit{}, err
	}
	if err := p.requireBalance(p.cfg.TokenB, caller, amountB); err != nil {
		return Deposit{}, err
	}

	var dep Deposit
	if p.lpSupply.IsZero() {
		dep = Deposit{Shares: amountA.Clone(), UsedA: amountA.Clone(), UsedB: amountB.Clone()}
	} else {
		var err error
		dep, err = proportionalDeposit(amountA, amountB, p.reserveA, p.reserveB, p.lpSupply)
		if err != nil {
			return Deposit{}, err
		}
	}

	newA, overflowA := new(uint256.Int).AddOverflow(p.reserveA, dep.UsedA)
	newB, overflowB := new(uint256.Int).AddOverflow(p.reserveB, dep.UsedB)
	newSupply, overflowS := new(uint256.Int).AddOverflow(p.lpSupply, dep.Shares)
	if overflowA || overflowB || overflowS {
		return Deposit{}, fmt.Errorf("deposit: %w", ErrOverflow)
	}

	err := p.ledger.Apply(
		ledger.Move(p.cfg.TokenA, caller, p.cfg.Address, dep.UsedA),
		ledger.Move(p.cfg.TokenB, caller, p.cfg.Address, dep.UsedB),
		ledger.Op{Token: p.cfg.LPToken, To: caller, Amount: dep.Shares},
	)
	if err != nil {
		return Deposit{}, err
	}

	p.reserveA, p.reserveB, p.lpSupply = newA, newB, newSupply
	p.logger.Debug("add liquidity",
		zap.String("caller", caller.Hex()),
		zap.String("used_a", dep.UsedA.Dec()),
		zap.String("used_b", dep.UsedB.Dec()),
		zap.String("shares", dep.Shares.Dec()),
	)
	return dep, nil
}

// RemoveLiquidity burns shares and pays out the pro-rata reserves, rounded down.
func (m *LiquidityManager) RemoveLiquidity(shares *uint256.Int, caller common.Address) (*uint256.Int, *uint256.Int, error) {
	if shares == nil || shares.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	held := p.ledger.BalanceOf(p.cfg.LPToken, caller)
	if held.Lt(shares) {
		return nil, nil, fmt.Errorf("account %s holds %s shares, requested %s: %w",
			caller.Hex(), held.Dec(), shares.Dec(), ErrInsufficientShare)
	}
	if p.lpSupply.IsZero() {
		return nil, nil, ErrEmptyPool
	}
	if shares.Gt(p.lpSupply) {
		return nil, nil, fmt.Errorf("requested %s shares, pool issued %s: %w",
			shares.Dec(), p.lpSupply.Dec(), ErrInsufficientShare)
	}

	amountA, err := mulDiv(shares, p.reserveA, p.lpSupply, false)
	if err != nil {
		return nil, nil, err
	}
	amountB, err := mulDiv(shares, p.reserveB, p.lpSupply, false)
	if err != nil {
		return nil, nil, err
	}
	if amountA.IsZero() || amountB.IsZero() {
		return nil, nil, fmt.Errorf("withdraw %s shares pays nothing: %w", shares.Dec(), ErrInsufficientOutput)
	}

	err = p.ledger.Apply(
		ledger.Op{Token: p.cfg.LPToken, From: caller, Amount: shares},
		ledger.Move(p.cfg.TokenA, p.cfg.Address, caller, amountA),
		ledger.Move(p.cfg.TokenB, p.cfg.Address, caller, amountB),
	)
	if err != nil {
		return nil, nil, err
	}

	p.reserveA = new(uint256.Int).Sub(p.reserveA, amountA)
	p.reserveB = new(uint256.Int).Sub(p.reserveB, amountB)
	p.lpSupply = new(uint256.Int).Sub(p.lpSupply, shares)
	p.logger.Debug("remove liquidity",
		zap.String("caller", caller.Hex()),
		zap.String("shares", shares.Dec()),
		zap.String("amount_a", amountA.Dec()),
		zap.String("amount_b", amountB.Dec()),
	)
	return amountA, amountB, nil
}

func proportionalDeposit(amountA, amountB, reserveA, reserveB, supply *uint256.Int) (Deposit, error) {
	sharesA, err := mulDiv(amountA, supply, reserveA, false)
	if err != nil {
		return Deposit{}, err
	}
	sharesB, err := mulDiv(amountB, supply, reserveB, false)
	if err != nil {
		return Deposit{}, err
	}
	shares := minUint(sharesA, sharesB)
	if shares.IsZero() {
		return Deposit{}, fmt.Errorf("deposit mints no shares: %w", ErrInsufficientOutput)
	}

	usedA, err := mulDiv(shares, reserveA, supply, true)
	if err != nil {
		return Deposit{}, err
	}
	usedB, err := mulDiv(shares, reserveB, supply, true)
	if err != nil {
		return Deposit{}, err
	}
	return Deposit{Shares: shares.Clone(), UsedA: usedA, UsedB: usedB}, nil
}

func (p *Pool) requireBalance(token, account common.Address, amount *uint256.Int) error {
	bal := p.ledger.BalanceOf(token, account)
	if bal.Lt(amount) {
		return fmt.Errorf("account %s token %s has %s, needs %s: %w",
			account.Hex(), token.Hex(), bal.Dec(), amount.Dec(), ErrInsufficientBalance)
	}
	return nil
}
