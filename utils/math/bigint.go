package math

import (
	"fmt"
	"math/big"
)

// BpsDenominator is the basis-point scale (100% = 10000 bps).
const BpsDenominator = 10000

// MulBps returns x * bps / 10000, the usual basis-point discount or fee
// computation. A nil x is treated as zero.
func MulBps(x *big.Int, bps int64) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(x, big.NewInt(bps))
	return out.Div(out, big.NewInt(BpsDenominator))
}

// Percent returns x * pct / 100. A nil x is treated as zero.
func Percent(x *big.Int, pct int64) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(x, big.NewInt(pct))
	return out.Div(out, big.NewInt(100))
}

// Float64 converts x to the nearest float64. Values above 2^64 lose
// precision but never wrap. A nil x is treated as zero.
func Float64(x *big.Int) float64 {
	if x == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}

// CheckedAdd returns a + b, failing on nil or negative operands. Amounts in
// this system are unsigned quantities; a negative operand always indicates
// an upstream bug rather than a valid value.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("nil operand")
	}
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, fmt.Errorf("negative operand")
	}
	return new(big.Int).Add(a, b), nil
}

// CheckedSub returns a - b, failing when the result would be negative.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("nil operand")
	}
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("subtraction underflow")
	}
	return new(big.Int).Sub(a, b), nil
}
