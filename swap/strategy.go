package swap

import (
	"context"
	"math/big"
	"time"

	"github.com/michaelpento.lv/flasharb/flashloan"
)

// Strategy executes the two legs of an arbitrage round trip. The input of
// each leg is the exact amount held after the prior step; the return value
// is the realized output. Both implementations grant the router a fresh
// allowance for the exact input amount before each leg.
type Strategy interface {
	// SwapToTarget sells amountIn of the base asset for the target token.
	SwapToTarget(ctx context.Context, req *flashloan.Request, amountIn *big.Int) (*big.Int, error)

	// SwapToBase sells amountIn of the target token back to the base
	// asset. targetBought is the realized output of the buy leg, which
	// the fixed-fee variant uses to derive its minimum output.
	SwapToBase(ctx context.Context, req *flashloan.Request, amountIn, targetBought *big.Int) (*big.Int, error)
}

const (
	// Sell-leg allowance of the fixed-fee variant: 95% of the buy leg's
	// realized output.
	fixedSlippagePct = 95

	defaultSwapDeadline = 2 * time.Minute
)

// legDeadline returns the request deadline when set, or a short default
// window from the strategy's clock.
func legDeadline(req *flashloan.Request, now func() time.Time) *big.Int {
	if req.Deadline != nil && req.Deadline.Sign() > 0 {
		return req.Deadline
	}
	return big.NewInt(now().Add(defaultSwapDeadline).Unix())
}
