package amm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAmountAfterFee(t *testing.T) {
	require.Equal(t, uint64(9970), AmountAfterFee(u(10_000), 30).Uint64())
	require.Equal(t, uint64(1), AmountAfterFee(u(3), 5000).Uint64())
	require.Equal(t, uint64(99), AmountAfterFee(u(100), 30).Uint64())
	require.True(t, AmountAfterFee(u(100), FeeDenominator).IsZero())
}

func TestQuoteExactInMatchesReference(t *testing.T) {
	q, err := QuoteExactIn(u(10_000), u(1_000_000), u(2_000_000), 30)
	require.NoError(t, err)

	// floor(net*Rout/(Rin+net)) equals Rout - ceil(Rin*Rout/(Rin+net)).
	net := big.NewInt(9970)
	want := new(big.Int).Mul(net, big.NewInt(2_000_000))
	want.Quo(want, new(big.Int).Add(big.NewInt(1_000_000), net))

	require.Equal(t, want.String(), q.AmountOut.Dec())
	require.Equal(t, uint64(19_743), q.AmountOut.Uint64())
	require.Equal(t, uint64(30), q.Fee.Uint64())
	require.Equal(t, uint64(9970), q.AmountInNet.Uint64())
	require.Equal(t, uint64(1_010_000), q.NewReserveIn.Uint64())
	require.Equal(t, uint64(1_980_257), q.NewReserveOut.Uint64())
}

func TestQuoteExactInRoundsRetainedReserveUp(t *testing.T) {
	// Rin=1000, Rout=10, in=100: a floored retained reserve pays out 1 and
	// leaves 1100*9 = 9900 < 1000*10.
	floored := new(big.Int).Sub(big.NewInt(10), new(big.Int).Quo(big.NewInt(1_000*10), big.NewInt(1_000+99)))
	require.Equal(t, int64(1), floored.Int64())
	require.Equal(t, -1, new(big.Int).Mul(big.NewInt(1_100), big.NewInt(10-1)).Cmp(big.NewInt(1_000*10)))

	_, err := QuoteExactIn(u(100), u(1_000), u(10), 30)
	require.ErrorIs(t, err, ErrInsufficientOutput)

	// the same rule gives 19743 rather than 19744 for 10000 in against (1e6, 2e6)
	q, err := QuoteExactIn(u(10_000), u(1_000_000), u(2_000_000), 30)
	require.NoError(t, err)
	literal := new(big.Int).Sub(big.NewInt(2_000_000),
		new(big.Int).Quo(big.NewInt(2_000_000_000_000), big.NewInt(1_009_970)))
	require.Equal(t, "19744", literal.String())
	require.Equal(t, uint64(19_743), q.AmountOut.Uint64())
	require.True(t, Product(q.NewReserveIn, q.NewReserveOut).Cmp(Product(u(1_000_000), u(2_000_000))) >= 0)
}

func TestQuoteExactInErrors(t *testing.T) {
	_, err := QuoteExactIn(u(0), u(10), u(10), 30)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = QuoteExactIn(u(1), u(0), u(10), 30)
	require.ErrorIs(t, err, ErrEmptyPool)

	// one unit at 30 bps nets zero and buys nothing
	_, err = QuoteExactIn(u(1), u(1_000), u(1_000), 30)
	require.ErrorIs(t, err, ErrInsufficientOutput)

	max := new(uint256.Int).SetAllOne()
	_, err = QuoteExactIn(u(1), max, u(10), 0)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestQuoteExactInZeroFeeKeepsProduct(t *testing.T) {
	// Rin=3, Rout=3, in=1: a floored retained reserve would leave 4*2 < 9.
	_, err := QuoteExactIn(u(1), u(3), u(3), 0)
	require.ErrorIs(t, err, ErrInsufficientOutput)

	q, err := QuoteExactIn(u(7_919), u(104_729), u(1_299_709), 0)
	require.NoError(t, err)
	require.True(t, Product(q.NewReserveIn, q.NewReserveOut).Cmp(Product(u(104_729), u(1_299_709))) >= 0)
}

func TestQuoteExactInLargeReserves(t *testing.T) {
	reserve := new(uint256.Int).Lsh(u(1), 200)
	q, err := QuoteExactIn(new(uint256.Int).Lsh(u(1), 190), reserve, reserve, 30)
	require.NoError(t, err)
	require.True(t, q.AmountOut.Lt(reserve))
	require.True(t, Product(q.NewReserveIn, q.NewReserveOut).Cmp(Product(reserve, reserve)) >= 0)
}
