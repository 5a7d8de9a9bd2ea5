package arbitrage

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"ammScope/internal/amm"
)

var (
	// ErrNoOpportunity means both pools price A/B the same within tolerance.
	ErrNoOpportunity = errors.New("no arbitrage opportunity")
	ErrUnprofitable  = errors.New("arbitrage unprofitable after fees")
)

var denominator = big.NewInt(amm.FeeDenominator)

// Config tunes opportunity detection.
type Config struct {
	// ToleranceBps is the relative price gap treated as equal prices.
	ToleranceBps uint16
}

// Opportunity is a sized two-leg cycle: StartToken is sold for MidToken in the
// first pool, and MidToken is sold back for StartToken in the second.
type Opportunity struct {
	StartToken      common.Address
	MidToken        common.Address
	FirstIsX        bool
	AmountIn        *uint256.Int
	IntermediateOut *uint256.Int
	AmountOut       *uint256.Int
	Profit          *uint256.Int
}

type cycle struct {
	start    common.Address
	mid      common.Address
	first    amm.State
	second   amm.State
	firstIsX bool
	balance  *uint256.Int
}

// Plan sizes the most profitable round trip between two reserve snapshots of
// the same token pair. Tokens A and B are those of x. Profit of the two
// possible starting tokens is compared in units of A at x's price.
func Plan(x, y amm.State, balanceA, balanceB *uint256.Int, cfg Config) (Opportunity, error) {
	if err := samePair(x, y); err != nil {
		return Opportunity{}, err
	}
	ax, bx := x.ReserveA, x.ReserveB
	ay, _ := y.Reserve(x.TokenA)
	by, _ := y.Reserve(x.TokenB)
	if ax.IsZero() || bx.IsZero() || ay.IsZero() || by.IsZero() {
		return Opportunity{}, amm.ErrEmptyPool
	}
	if withinTolerance(ax, bx, ay, by, cfg.ToleranceBps) {
		return Opportunity{}, ErrNoOpportunity
	}

	// A is cheaper where reserveA/reserveB is larger; it is bought there.
	cheap, rich, cheapIsX := y, x, false
	if amm.Product(ax, by).Cmp(amm.Product(ay, bx)) > 0 {
		cheap, rich, cheapIsX = x, y, true
	}
	cycles := []cycle{
		{start: x.TokenB, mid: x.TokenA, first: cheap, second: rich, firstIsX: cheapIsX, balance: balanceB},
		{start: x.TokenA, mid: x.TokenB, first: rich, second: cheap, firstIsX: !cheapIsX, balance: balanceA},
	}

	var (
		best       Opportunity
		found      bool
		profitable bool
		funded     bool
	)
	for _, c := range cycles {
		optimal := optimalInput(c)
		if optimal == nil {
			continue
		}
		profitable = true
		if c.balance == nil || c.balance.IsZero() {
			continue
		}
		funded = true

		amountIn := c.balance.Clone()
		if optimal.Cmp(c.balance.ToBig()) < 0 {
			amountIn, _ = uint256.FromBig(optimal)
		}
		opp, ok := simulate(c, amountIn)
		if !ok {
			continue
		}
		if !found || weighted(opp, x.TokenA, ax, bx).Cmp(weighted(best, x.TokenA, ax, bx)) > 0 {
			best, found = opp, true
		}
	}

	switch {
	case !profitable:
		return Opportunity{}, ErrUnprofitable
	case !funded:
		return Opportunity{}, fmt.Errorf("caller holds no input token: %w", amm.ErrInsufficientBalance)
	case !found:
		return Opportunity{}, ErrUnprofitable
	}
	return best, nil
}

func samePair(x, y amm.State) error {
	if x.TokenA == x.TokenB {
		return fmt.Errorf("pool tokens must differ: %w", amm.ErrInvalidPool)
	}
	sameOrder := y.TokenA == x.TokenA && y.TokenB == x.TokenB
	swapped := y.TokenA == x.TokenB && y.TokenB == x.TokenA
	if !sameOrder && !swapped {
		return fmt.Errorf("pools trade different pairs: %w", amm.ErrInvalidPool)
	}
	if x.ReserveA == nil || x.ReserveB == nil || y.ReserveA == nil || y.ReserveB == nil {
		return amm.ErrEmptyPool
	}
	return nil
}

// withinTolerance reports |ax/bx - ay/by| <= tol/10000 * ay/by, cross-multiplied.
func withinTolerance(ax, bx, ay, by *uint256.Int, toleranceBps uint16) bool {
	left := amm.Product(ax, by)
	right := amm.Product(ay, bx)
	diff := new(big.Int).Sub(left, right)
	diff.Abs(diff).Mul(diff, denominator)
	bound := new(big.Int).Mul(right, big.NewInt(int64(toleranceBps)))
	return diff.Cmp(bound) <= 0
}

// optimalInput returns the input maximizing out(x)-x for the cycle, or nil
// when even an infinitesimal trade loses to fees.
//
// out(x) = a*x/(b+c*x) with a = g1*g2*R1out*R2out, b = R1in*R2in*D^2 and
// c = g1*(R2in*D + g2*R1out), so x* = (sqrt(a*b) - b)/c.
func optimalInput(c cycle) *big.Int {
	r1in, _ := c.first.Reserve(c.start)
	r1out, _ := c.first.Reserve(c.mid)
	r2in, _ := c.second.Reserve(c.mid)
	r2out, _ := c.second.Reserve(c.start)
	g1 := big.NewInt(amm.FeeDenominator - int64(c.first.FeeBps))
	g2 := big.NewInt(amm.FeeDenominator - int64(c.second.FeeBps))
	if g1.Sign() <= 0 || g2.Sign() <= 0 {
		return nil
	}

	inProduct := new(big.Int).Mul(r1in.ToBig(), r2in.ToBig())
	inProduct.Mul(inProduct, denominator)

	radicand := new(big.Int).Mul(amm.Product(r1in, r1out), amm.Product(r2in, r2out))
	radicand.Mul(radicand, g1).Mul(radicand, g2)
	root := new(big.Int).Sqrt(radicand)
	if root.Cmp(inProduct) <= 0 {
		return nil
	}

	num := new(big.Int).Sub(root, inProduct)
	num.Mul(num, denominator)
	den := new(big.Int).Mul(r2in.ToBig(), denominator)
	den.Add(den, new(big.Int).Mul(g2, r1out.ToBig()))
	den.Mul(den, g1)

	x := num.Quo(num, den)
	if x.Sign() <= 0 {
		return nil
	}
	return x
}

// simulate runs the cycle through the exact swap math.
func simulate(c cycle, amountIn *uint256.Int) (Opportunity, bool) {
	q1, _, err := amm.QuoteState(c.first, c.start, c.mid, amountIn)
	if err != nil {
		return Opportunity{}, false
	}
	q2, _, err := amm.QuoteState(c.second, c.mid, c.start, q1.AmountOut)
	if err != nil || !q2.AmountOut.Gt(amountIn) {
		return Opportunity{}, false
	}
	return Opportunity{
		StartToken:      c.start,
		MidToken:        c.mid,
		FirstIsX:        c.firstIsX,
		AmountIn:        amountIn,
		IntermediateOut: q1.AmountOut,
		AmountOut:       q2.AmountOut,
		Profit:          new(uint256.Int).Sub(q2.AmountOut, amountIn),
	}, true
}

// weighted scales profit so A and B denominated profits compare at x's price:
// profitA*bx against profitB*ax.
func weighted(o Opportunity, tokenA common.Address, ax, bx *uint256.Int) *big.Int {
	if o.StartToken == tokenA {
		return amm.Product(o.Profit, bx)
	}
	return amm.Product(o.Profit, ax)
}
