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

// PathBased executes path swaps through a V2-style router. The sell leg's
// minimum output is derived from a live quote against current pool state,
// discounted by the configured slippage tolerance.
type PathBased struct {
	router      dex.V2Router
	routerAddr  common.Address
	tokens      token.Source
	baseAsset   common.Address
	recipient   common.Address
	slippageBps uint32
	logger      *zap.Logger
	now         func() time.Time
}

// NewPathBased creates the path-based strategy with a slippage tolerance in
// basis points.
func NewPathBased(router dex.V2Router, routerAddr common.Address, tokens token.Source, baseAsset, recipient common.Address, slippageBps uint32, logger *zap.Logger) (*PathBased, error) {
	if router == nil {
		return nil, fmt.Errorf("router cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}
	if slippageBps >= bigmath.BpsDenominator {
		return nil, fmt.Errorf("slippage tolerance must be below %d bps", bigmath.BpsDenominator)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &PathBased{
		router:      router,
		routerAddr:  routerAddr,
		tokens:      tokens,
		baseAsset:   baseAsset,
		recipient:   recipient,
		slippageBps: slippageBps,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// SwapToTarget sells amountIn of the base asset along base->target with the
// caller-supplied minimum output.
func (p *PathBased) SwapToTarget(ctx context.Context, req *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
	path := []common.Address{p.baseAsset, req.TargetToken}
	return p.swap(ctx, req, path, amountIn, req.MinOutBuy)
}

// SwapToBase sells amountIn of the target token along target->base. The
// minimum output is quoted live and discounted by the slippage tolerance;
// the buy leg's realized output is not used.
func (p *PathBased) SwapToBase(ctx context.Context, req *flashloan.Request, amountIn, _ *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("invalid swap input amount")
	}

	path := []common.Address{req.TargetToken, p.baseAsset}

	quote, err := p.router.GetAmountsOut(ctx, amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("sell quote failed: %w", err)
	}
	if len(quote) != len(path) {
		return nil, fmt.Errorf("unexpected quote length %d", len(quote))
	}

	expected := quote[len(quote)-1]
	minOut := bigmath.MulBps(expected, int64(bigmath.BpsDenominator-p.slippageBps))

	return p.swap(ctx, req, path, amountIn, minOut)
}

func (p *PathBased) swap(ctx context.Context, req *flashloan.Request, path []common.Address, amountIn, minOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("invalid swap input amount")
	}

	// Fresh allowance for exactly this leg's input.
	if err := p.tokens.Token(path[0]).Approve(ctx, p.routerAddr, amountIn); err != nil {
		return nil, fmt.Errorf("router approval failed: %w", err)
	}

	amounts, err := p.router.SwapExactTokensForTokens(ctx, amountIn, minOut, path, p.recipient, legDeadline(req, p.now))
	if err != nil {
		return nil, fmt.Errorf("swap failed: %w", err)
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("router returned no amounts")
	}

	amountOut := amounts[len(amounts)-1]

	p.logger.Debug("Swap leg complete",
		zap.String("token_in", path[0].Hex()),
		zap.String("token_out", path[len(path)-1].Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()))

	return amountOut, nil
}
