package aave

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/token"
	bigmath "github.com/michaelpento.lv/flasharb/utils/math"
)

// Aave V3 pool ABI for single-asset flash loans
const poolABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "receiverAddress", "type": "address"},
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "params", "type": "bytes"},
			{"internalType": "uint16", "name": "referralCode", "type": "uint16"}
		],
		"name": "flashLoanSimple",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "FLASHLOAN_PREMIUM_TOTAL",
		"outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// PoolConfig contains configuration for the lending pool adapter
type PoolConfig struct {
	PoolAddress common.Address
	PremiumBps  uint16 // In basis points (9 = 0.09%)
}

// Pool implements the flashloan.Lender interface for an Aave-style pool
type Pool struct {
	client  *ethclient.Client
	tx      *token.Transactor
	config  *PoolConfig
	logger  *zap.Logger
	abi     abi.ABI
	metrics struct {
		loanCount  prometheus.Counter
		loanVolume prometheus.Counter
		latency    prometheus.Histogram
		errors     prometheus.Counter
	}
}

// NewPool creates a new lending pool adapter
func NewPool(client *ethclient.Client, tx *token.Transactor, config *PoolConfig, logger *zap.Logger) (*Pool, error) {
	if client == nil {
		return nil, fmt.Errorf("ethclient cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	parsedABI, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	pool := &Pool{
		client: client,
		tx:     tx,
		config: config,
		logger: logger,
		abi:    parsedABI,
	}

	pool.metrics.loanCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashloan_pool_loans_total",
		Help: "Total number of flash loans requested",
	})
	pool.metrics.loanVolume = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashloan_pool_volume_wei",
		Help: "Total volume of flash loans in wei",
	})
	pool.metrics.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashloan_pool_latency_seconds",
		Help:    "Latency of flash loan submissions",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
	})
	pool.metrics.errors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashloan_pool_errors_total",
		Help: "Total number of flash loan submission errors",
	})

	return pool, nil
}

// Address returns the pool contract address.
func (p *Pool) Address() common.Address {
	return p.config.PoolAddress
}

// Premium returns the fee the pool charges on the given loan amount.
func (p *Pool) Premium(amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid loan amount")
	}

	premium := new(big.Int).Mul(amount, big.NewInt(int64(p.config.PremiumBps)))
	return premium.Div(premium, big.NewInt(10000)), nil
}

// FlashLoan submits a single-asset flash loan naming receiver as the
// repayment callback target.
func (p *Pool) FlashLoan(ctx context.Context, receiver common.Address, asset common.Address, amount *big.Int, params []byte, referralCode uint16) error {
	start := time.Now()
	defer func() {
		p.metrics.latency.Observe(time.Since(start).Seconds())
	}()

	if amount == nil || amount.Sign() <= 0 {
		p.metrics.errors.Inc()
		return fmt.Errorf("invalid loan amount")
	}

	callData, err := p.abi.Pack("flashLoanSimple", receiver, asset, amount, params, referralCode)
	if err != nil {
		p.metrics.errors.Inc()
		return fmt.Errorf("failed to pack flashLoanSimple: %w", err)
	}

	if err := p.tx.Send(ctx, p.config.PoolAddress, callData); err != nil {
		p.metrics.errors.Inc()
		return fmt.Errorf("failed to submit flash loan: %w", err)
	}

	p.metrics.loanCount.Inc()
	p.metrics.loanVolume.Add(bigmath.Float64(amount))

	p.logger.Info("Flash loan submitted",
		zap.String("receiver", receiver.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.String()))

	return nil
}

// PremiumTotal reads the pool's configured premium in basis points.
func (p *Pool) PremiumTotal(ctx context.Context) (*big.Int, error) {
	callData, err := p.abi.Pack("FLASHLOAN_PREMIUM_TOTAL")
	if err != nil {
		return nil, fmt.Errorf("failed to pack FLASHLOAN_PREMIUM_TOTAL: %w", err)
	}

	result, err := p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &p.config.PoolAddress,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read premium: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}
