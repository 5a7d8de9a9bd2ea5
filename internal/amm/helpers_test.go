package amm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"ammScope/internal/ledger"
)

var (
	tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	lp1    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	lp2    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	trader = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func newTestPool(t *testing.T, l *ledger.Ledger, name string, feeBps uint16) (*Pool, *LiquidityManager) {
	t.Helper()
	pool, err := NewPool(PoolConfig{Name: name, TokenA: tokenA, TokenB: tokenB, FeeBps: feeBps}, l, nil)
	require.NoError(t, err)
	return pool, NewLiquidityManager(pool)
}

func fund(t *testing.T, l *ledger.Ledger, account common.Address, a, b uint64) {
	t.Helper()
	if a > 0 {
		require.NoError(t, l.Mint(tokenA, account, u(a)))
	}
	if b > 0 {
		require.NoError(t, l.Mint(tokenB, account, u(b)))
	}
}

// seededPool returns a pool funded by lp1 with reserves (a, b).
func seededPool(t *testing.T, l *ledger.Ledger, name string, feeBps uint16, a, b uint64) (*Pool, *LiquidityManager) {
	t.Helper()
	pool, lm := newTestPool(t, l, name, feeBps)
	fund(t, l, lp1, a, b)
	_, err := lm.AddLiquidity(u(a), u(b), lp1)
	require.NoError(t, err)
	return pool, lm
}

// requireBacked checks that reserves match the pool account balances and LP
// supply matches the ledger supply.
func requireBacked(t *testing.T, l *ledger.Ledger, p *Pool) {
	t.Helper()
	ra, rb := p.SpotPrice()
	require.Equal(t, ra.Dec(), l.BalanceOf(tokenA, p.Address()).Dec())
	require.Equal(t, rb.Dec(), l.BalanceOf(tokenB, p.Address()).Dec())
	require.Equal(t, p.LPSupply().Dec(), l.TotalSupply(p.LPToken()).Dec())
	require.Equal(t, ra.IsZero(), rb.IsZero())
	require.Equal(t, ra.IsZero(), p.LPSupply().IsZero())
}
