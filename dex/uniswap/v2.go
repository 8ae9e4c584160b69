package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/flasharb/token"
)

// Minimal ABI for the V2 router entry points the engine uses
const v2RouterABI = `[
	{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"}
]`

// V2 implements the dex.V2Router interface against the canonical router.
type V2 struct {
	client  *ethclient.Client
	tx      *token.Transactor
	router  common.Address
	abi     abi.ABI
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewV2 creates a V2 router client. The limiter bounds read-only quote
// traffic against the RPC endpoint; pass nil to disable limiting.
func NewV2(client *ethclient.Client, tx *token.Transactor, router common.Address, limiter *rate.Limiter, logger *zap.Logger) (*V2, error) {
	if client == nil {
		return nil, fmt.Errorf("ethclient cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	parsedABI, err := abi.JSON(strings.NewReader(v2RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &V2{
		client:  client,
		tx:      tx,
		router:  router,
		abi:     parsedABI,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// GetRouterAddress returns the router contract address.
func (v *V2) GetRouterAddress() common.Address {
	return v.router
}

// GetAmountsOut quotes the expected output of amountIn along path.
func (v *V2) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("invalid path length")
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("quote rate limit: %w", err)
	}

	data, err := v.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
	}

	result, err := v.client.CallContract(ctx, ethereum.CallMsg{
		To:   &v.router,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut call failed: %w", err)
	}

	out, err := v.abi.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut: %w", err)
	}

	return out[0].([]*big.Int), nil
}

// SwapExactTokensForTokens swaps amountIn along path, reverting if the
// realized output falls below amountOutMin.
func (v *V2) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("invalid path length")
	}

	data, err := v.abi.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to pack swapExactTokensForTokens: %w", err)
	}

	// Simulate first to recover the per-hop amounts; the router reverts
	// here if the output would fall below amountOutMin.
	result, err := v.client.CallContract(ctx, ethereum.CallMsg{
		From: v.tx.From(),
		To:   &v.router,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("swap simulation failed: %w", err)
	}

	out, err := v.abi.Unpack("swapExactTokensForTokens", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack swapExactTokensForTokens: %w", err)
	}
	amounts := out[0].([]*big.Int)

	if err := v.tx.Send(ctx, v.router, data); err != nil {
		return nil, fmt.Errorf("swapExactTokensForTokens failed: %w", err)
	}

	v.logger.Debug("Executed swapExactTokensForTokens",
		zap.String("token_in", path[0].Hex()),
		zap.String("token_out", path[len(path)-1].Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amounts[len(amounts)-1].String()))

	return amounts, nil
}
