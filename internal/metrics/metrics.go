// Package metrics derives display figures from pool snapshots. Nothing here
// feeds back into pool state; floating point never appears, only fixed-point
// decimal strings.
package metrics

import (
	"math/big"

	"ammScope/internal/model"
)

// ForSnapshot returns TVL (2*reserveA, in A), the spot price reserveA/reserveB
// and cumulative fees relative to reserves.
func ForSnapshot(s model.PoolSnapshot) model.PoolMetrics {
	reserveA, reserveB := mustBig(s.ReserveA), mustBig(s.ReserveB)
	return model.PoolMetrics{
		TVL:       new(big.Int).Lsh(reserveA, 1).String(),
		SpotPrice: ratio(reserveA, reserveB),
		FeeRateA:  computeRate(mustBig(s.FeeA), reserveA),
		FeeRateB:  computeRate(mustBig(s.FeeB), reserveB),
	}
}

// Slippage compares the price a trader realised against the pre-trade spot
// price, in percent, and reports the trade size relative to the reserve it
// drew from. diffA and diffB are the trader's balance changes. Both results are
// "" when the trade does not move both balances.
func Slippage(before model.PoolSnapshot, diffA, diffB *big.Int) (slippage, lotFraction string) {
	reserveA, reserveB := mustBig(before.ReserveA), mustBig(before.ReserveB)
	if reserveA.Sign() == 0 || reserveB.Sign() == 0 || diffA == nil || diffB == nil || diffA.Sign() == 0 || diffB.Sign() == 0 {
		return "", ""
	}

	var expected, actual, lot *big.Rat
	if diffA.Sign() > 0 {
		// bought A with B
		expected = new(big.Rat).SetFrac(reserveA, reserveB)
		actual = new(big.Rat).SetFrac(new(big.Int).Neg(diffA), diffB)
		lot = new(big.Rat).SetFrac(new(big.Int).Neg(diffB), reserveB)
	} else {
		expected = new(big.Rat).SetFrac(reserveB, reserveA)
		actual = new(big.Rat).SetFrac(new(big.Int).Neg(diffB), diffA)
		lot = new(big.Rat).SetFrac(new(big.Int).Neg(diffA), reserveA)
	}

	pct := new(big.Rat).Sub(actual, expected)
	pct.Mul(pct, big.NewRat(100, 1))
	pct.Quo(pct, expected)
	return pct.FloatString(ratioScale), lot.FloatString(ratioScale)
}
