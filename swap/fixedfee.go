package swap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/dex"
	"github.com/michaelpento.lv/flasharb/flashloan"
	"github.com/michaelpento.lv/flasharb/token"
	bigmath "github.com/michaelpento.lv/flasharb/utils/math"
)

// FixedFee executes single-hop swaps at a caller-specified fee tier. The
// sell leg tolerates a fixed 5% slippage against the buy leg's realized
// output.
type FixedFee struct {
	router     dex.V3Router
	routerAddr common.Address
	tokens     token.Source
	baseAsset  common.Address
	recipient  common.Address
	logger     *zap.Logger
	now        func() time.Time
}

// NewFixedFee creates the fixed-fee single-hop strategy. recipient is the
// engine identity that receives swap output.
func NewFixedFee(router dex.V3Router, routerAddr common.Address, tokens token.Source, baseAsset, recipient common.Address, logger *zap.Logger) (*FixedFee, error) {
	if router == nil {
		return nil, fmt.Errorf("router cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &FixedFee{
		router:     router,
		routerAddr: routerAddr,
		tokens:     tokens,
		baseAsset:  baseAsset,
		recipient:  recipient,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// SwapToTarget sells amountIn of the base asset for the target token with
// the caller-supplied minimum output.
func (f *FixedFee) SwapToTarget(ctx context.Context, req *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
	return f.swap(ctx, req, f.baseAsset, req.TargetToken, amountIn, req.MinOutBuy)
}

// SwapToBase sells amountIn of the target token back to the base asset,
// accepting no less than 95% of the buy leg's realized output.
func (f *FixedFee) SwapToBase(ctx context.Context, req *flashloan.Request, amountIn, targetBought *big.Int) (*big.Int, error) {
	if targetBought == nil || targetBought.Sign() < 0 {
		return nil, fmt.Errorf("invalid buy leg output")
	}

	minOut := bigmath.Percent(targetBought, fixedSlippagePct)

	return f.swap(ctx, req, req.TargetToken, f.baseAsset, amountIn, minOut)
}

func (f *FixedFee) swap(ctx context.Context, req *flashloan.Request, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("invalid swap input amount")
	}

	// Fresh allowance for exactly this leg's input; residual allowances
	// from earlier calls are never relied upon.
	if err := f.tokens.Token(tokenIn).Approve(ctx, f.routerAddr, amountIn); err != nil {
		return nil, fmt.Errorf("router approval failed: %w", err)
	}

	amountOut, err := f.router.ExactInputSingle(ctx, dex.V3SwapParams{
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		Fee:              req.FeeTier,
		Recipient:        f.recipient,
		Deadline:         legDeadline(req, f.now),
		AmountIn:         amountIn,
		AmountOutMinimum: minOut,
	})
	if err != nil {
		return nil, fmt.Errorf("swap failed: %w", err)
	}

	f.logger.Debug("Swap leg complete",
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()))

	return amountOut, nil
}
