package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// FeeDenominator is the basis-point scale of FeeBps.
const FeeDenominator = 10_000

var bigFeeDenominator = big.NewInt(FeeDenominator)

// AmountAfterFee returns floor(amountIn * (10000 - feeBps) / 10000).
func AmountAfterFee(amountIn *uint256.Int, feeBps uint16) *uint256.Int {
	if int(feeBps) >= FeeDenominator {
		return uint256.NewInt(0)
	}
	num := new(big.Int).Mul(amountIn.ToBig(), big.NewInt(int64(FeeDenominator-int(feeBps))))
	num.Quo(num, bigFeeDenominator)
	out, _ := uint256.FromBig(num)
	return out
}

// SwapQuote is the priced result of a single exact-input swap.
type SwapQuote struct {
	AmountIn      *uint256.Int
	AmountInNet   *uint256.Int
	Fee           *uint256.Int
	AmountOut     *uint256.Int
	NewReserveIn  *uint256.Int
	NewReserveOut *uint256.Int
}

// QuoteExactIn prices amountIn against (reserveIn, reserveOut).
//
// amountOut = reserveOut - ceil(reserveIn*reserveOut / (reserveIn + amountInNet)).
// Rounding the retained reserve up keeps reserveIn*reserveOut non-decreasing even
// when the fee rounds to zero.
func QuoteExactIn(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint16) (SwapQuote, error) {
	if amountIn == nil || amountIn.IsZero() {
		return SwapQuote{}, ErrZeroAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return SwapQuote{}, ErrEmptyPool
	}
	if int(feeBps) > FeeDenominator {
		return SwapQuote{}, fmt.Errorf("fee %d bps: %w", feeBps, ErrInvalidPool)
	}

	newReserveIn, overflow := new(uint256.Int).AddOverflow(reserveIn, amountIn)
	if overflow {
		return SwapQuote{}, fmt.Errorf("reserve in: %w", ErrOverflow)
	}

	net := AmountAfterFee(amountIn, feeBps)
	fee := new(uint256.Int).Sub(amountIn, net)

	k := new(big.Int).Mul(reserveIn.ToBig(), reserveOut.ToBig())
	denom := new(big.Int).Add(reserveIn.ToBig(), net.ToBig())
	retained := ceilDiv(k, denom)

	rOut := reserveOut.ToBig()
	if retained.Cmp(rOut) >= 0 {
		return SwapQuote{}, ErrInsufficientOutput
	}
	out, _ := uint256.FromBig(new(big.Int).Sub(rOut, retained))
	if out.IsZero() {
		return SwapQuote{}, ErrInsufficientOutput
	}
	newReserveOut, _ := uint256.FromBig(retained)

	return SwapQuote{
		AmountIn:      amountIn.Clone(),
		AmountInNet:   net,
		Fee:           fee,
		AmountOut:     out,
		NewReserveIn:  newReserveIn,
		NewReserveOut: newReserveOut,
	}, nil
}

// Product returns reserveA*reserveB without overflow.
func Product(reserveA, reserveB *uint256.Int) *big.Int {
	return new(big.Int).Mul(reserveA.ToBig(), reserveB.ToBig())
}

func ceilDiv(num, denom *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// mulDiv returns floor(a*b/d), or ceil when roundUp is set.
func mulDiv(a, b, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	num := new(big.Int).Mul(a.ToBig(), b.ToBig())
	var q *big.Int
	if roundUp {
		q = ceilDiv(num, d.ToBig())
	} else {
		q = num.Quo(num, d.ToBig())
	}
	out, overflow := uint256.FromBig(q)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

func minUint(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a
	}
	return b
}
