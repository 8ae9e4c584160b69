package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// V3SwapParams mirrors ISwapRouter.ExactInputSingleParams.
type V3SwapParams struct {
	TokenIn          common.Address
	TokenOut         common.Address
	Fee              uint32
	Recipient        common.Address
	Deadline         *big.Int
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	PriceLimit       *big.Int
}

// V3Router is a fixed-fee single-hop swap router. The router reverts the
// whole transaction when the realized output falls below AmountOutMinimum.
type V3Router interface {
	ExactInputSingle(ctx context.Context, params V3SwapParams) (*big.Int, error)
}

// V2Router is a path-based swap router with a read-only quote surface.
type V2Router interface {
	// SwapExactTokensForTokens swaps amountIn along path, failing if the
	// realized output falls below amountOutMin. Returns the amounts at
	// every hop; the last entry is the realized output.
	SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]*big.Int, error)

	// GetAmountsOut quotes the expected output of amountIn along path
	// against current pool state.
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}
