package arbitrage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"ammScope/internal/amm"
	"ammScope/internal/ledger"
)

var (
	tokenA   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	provider = common.HexToAddress("0x1111111111111111111111111111111111111111")
	arber    = common.HexToAddress("0x4444444444444444444444444444444444444444")
	whale    = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
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

func newPool(t *testing.T, l *ledger.Ledger, name string, a, b uint64) *amm.Pool {
	t.Helper()
	pool, err := amm.NewPool(amm.PoolConfig{Name: name, TokenA: tokenA, TokenB: tokenB, FeeBps: 30}, l, nil)
	require.NoError(t, err)
	fund(t, l, provider, a, b)
	_, err = amm.NewLiquidityManager(pool).AddLiquidity(u(a), u(b), provider)
	require.NoError(t, err)
	return pool
}

func state(a, b uint64) amm.State {
	return amm.State{TokenA: tokenA, TokenB: tokenB, ReserveA: u(a), ReserveB: u(b), FeeBps: 30}
}

type balances struct {
	a, b string
}

func balanceOf(l *ledger.Ledger, account common.Address) balances {
	return balances{a: l.BalanceOf(tokenA, account).Dec(), b: l.BalanceOf(tokenB, account).Dec()}
}
