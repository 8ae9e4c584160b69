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

	"github.com/michaelpento.lv/flasharb/dex"
	"github.com/michaelpento.lv/flasharb/token"
)

// Contract addresses
var (
	MainnetV3Router = common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564")
	MainnetV2Router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	WETHAddress     = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

// Minimal ABI for Router.exactInputSingle
const v3RouterABI = `[
	{"inputs":[{"components":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint24","name":"fee","type":"uint24"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMinimum","type":"uint256"},{"internalType":"uint160","name":"sqrtPriceLimitX96","type":"uint160"}],"internalType":"struct ISwapRouter.ExactInputSingleParams","name":"params","type":"tuple"}],"name":"exactInputSingle","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"}
]`

// V3 implements the dex.V3Router interface against the canonical router.
type V3 struct {
	client *ethclient.Client
	tx     *token.Transactor
	router common.Address
	abi    abi.ABI
	logger *zap.Logger
}

// NewV3 creates a V3 router client bound to the given router address.
func NewV3(client *ethclient.Client, tx *token.Transactor, router common.Address, logger *zap.Logger) (*V3, error) {
	if client == nil {
		return nil, fmt.Errorf("ethclient cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	parsedABI, err := abi.JSON(strings.NewReader(v3RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &V3{
		client: client,
		tx:     tx,
		router: router,
		abi:    parsedABI,
		logger: logger,
	}, nil
}

// GetRouterAddress returns the router contract address.
func (v *V3) GetRouterAddress() common.Address {
	return v.router
}

// ExactInputSingle executes a single-hop swap at the given fee tier.
func (v *V3) ExactInputSingle(ctx context.Context, params dex.V3SwapParams) (*big.Int, error) {
	priceLimit := params.PriceLimit
	if priceLimit == nil {
		priceLimit = big.NewInt(0)
	}

	callParams := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		Fee               *big.Int
		Recipient         common.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               big.NewInt(int64(params.Fee)),
		Recipient:         params.Recipient,
		Deadline:          params.Deadline,
		AmountIn:          params.AmountIn,
		AmountOutMinimum:  params.AmountOutMinimum,
		SqrtPriceLimitX96: priceLimit,
	}

	data, err := v.abi.Pack("exactInputSingle", callParams)
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInputSingle: %w", err)
	}

	// Simulate first to recover amountOut; the router reverts here if the
	// output would fall below the supplied minimum.
	result, err := v.client.CallContract(ctx, ethereum.CallMsg{
		From: v.tx.From(),
		To:   &v.router,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("exactInputSingle simulation failed: %w", err)
	}

	out, err := v.abi.Unpack("exactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack exactInputSingle: %w", err)
	}
	amountOut := out[0].(*big.Int)

	if err := v.tx.Send(ctx, v.router, data); err != nil {
		return nil, fmt.Errorf("exactInputSingle failed: %w", err)
	}

	v.logger.Debug("Executed exactInputSingle",
		zap.String("token_in", params.TokenIn.Hex()),
		zap.String("token_out", params.TokenOut.Hex()),
		zap.Uint32("fee", params.Fee),
		zap.String("amount_in", params.AmountIn.String()),
		zap.String("amount_out", amountOut.String()))

	return amountOut, nil
}
