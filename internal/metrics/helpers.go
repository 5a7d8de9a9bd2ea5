package metrics

import (
	"fmt"
	"math/big"
)

const ratioScale = 18

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func mustBig(value string) *big.Int {
	parsed, err := parseBigInt(value)
	if err != nil {
		return big.NewInt(0)
	}
	return parsed
}

// ratio formats num/denom, or "" when denom is zero.
func ratio(num, denom *big.Int) string {
	if num == nil || denom == nil || denom.Sign() == 0 {
		return ""
	}
	return new(big.Rat).SetFrac(num, denom).FloatString(ratioScale)
}

func computeRate(fee, reserve *big.Int) string {
	if fee == nil || fee.Sign() == 0 {
		return ""
	}
	return ratio(fee, reserve)
}

func sub(a, b string) *big.Int {
	return new(big.Int).Sub(mustBig(a), mustBig(b))
}
