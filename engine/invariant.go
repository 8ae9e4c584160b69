package engine

import (
	"fmt"
	"math/big"

	bigmath "github.com/michaelpento.lv/flasharb/utils/math"
)

// CheckRepayment validates that finalBalance covers the loan plus premium
// and, when minProfit is non-nil, the profit floor on top of it. It returns
// the realized profit only when a floor is configured; without one, a final
// balance exactly equal to the amount owed is valid and no profit is
// computed.
func CheckRepayment(finalBalance, borrowed, premium, minProfit *big.Int) (*big.Int, error) {
	if finalBalance == nil || finalBalance.Sign() < 0 {
		return nil, fmt.Errorf("invalid final balance")
	}

	owed, err := bigmath.CheckedAdd(borrowed, premium)
	if err != nil {
		return nil, fmt.Errorf("invalid loan terms: %w", err)
	}

	if finalBalance.Cmp(owed) < 0 {
		return nil, fmt.Errorf("%w: have %s, owe %s", ErrInsufficientRepayment, finalBalance, owed)
	}

	if minProfit == nil {
		return nil, nil
	}

	required, err := bigmath.CheckedAdd(owed, minProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum profit: %w", err)
	}
	if finalBalance.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientProfit, finalBalance, required)
	}

	profit, err := bigmath.CheckedSub(finalBalance, owed)
	if err != nil {
		return nil, fmt.Errorf("profit underflow: %w", err)
	}
	return profit, nil
}

// AmountOwed returns borrowed plus premium.
func AmountOwed(borrowed, premium *big.Int) *big.Int {
	return new(big.Int).Add(borrowed, premium)
}
