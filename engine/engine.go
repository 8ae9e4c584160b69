package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/flashloan"
	"github.com/michaelpento.lv/flasharb/guard"
	"github.com/michaelpento.lv/flasharb/swap"
	"github.com/michaelpento.lv/flasharb/token"
	bigmath "github.com/michaelpento.lv/flasharb/utils/math"
)

// Config is the engine's immutable construction-time configuration.
type Config struct {
	// Self is the engine identity whose token balances are inspected and
	// which receives swap output.
	Self common.Address

	// BaseAsset is the borrowed and repaid asset.
	BaseAsset common.Address

	// LendingPool is the only identity trusted to invoke the callback.
	LendingPool common.Address

	// MinProfit, when non-nil, is the minimum surplus required on top of
	// repayment for the sequence to be accepted.
	MinProfit *big.Int
}

// Engine executes the arbitrage sequence inside the flash loan's repayment
// callback: decode, swap out, swap back, check the repayment invariant, and
// leave the lending pool its repayment allowance.
type Engine struct {
	cfg      Config
	strategy swap.Strategy
	tokens   token.Source
	decimals *token.DecimalsCache
	reentry  *guard.ReentrancyGuard
	logger   *zap.Logger
	now      func() time.Time

	metrics struct {
		attempts   prometheus.Counter
		successes  prometheus.Counter
		failures   prometheus.CounterVec
		profitWei  prometheus.Counter
		legLatency prometheus.Histogram
	}
}

// NewEngine creates the callback executor. decimals may be nil to skip the
// target-token probe.
func NewEngine(cfg Config, strategy swap.Strategy, tokens token.Source, decimals *token.DecimalsCache, logger *zap.Logger) (*Engine, error) {
	if strategy == nil {
		return nil, fmt.Errorf("strategy cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.MinProfit != nil && cfg.MinProfit.Sign() < 0 {
		return nil, fmt.Errorf("minimum profit cannot be negative")
	}

	e := &Engine{
		cfg:      cfg,
		strategy: strategy,
		tokens:   tokens,
		decimals: decimals,
		reentry:  guard.NewReentrancyGuard(),
		logger:   logger,
		now:      time.Now,
	}

	e.metrics.attempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_attempts_total",
		Help: "Total number of arbitrage callbacks entered",
	})
	e.metrics.successes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_successes_total",
		Help: "Total number of arbitrage callbacks completed",
	})
	e.metrics.failures = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_failures_total",
		Help: "Number of arbitrage failures by reason",
	}, []string{"reason"})
	e.metrics.profitWei = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_profit_wei_total",
		Help: "Cumulative realized profit in base asset wei",
	})
	e.metrics.legLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbitrage_leg_latency_seconds",
		Help:    "Latency of individual swap legs",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	return e, nil
}

// ExecuteOperation implements flashloan.Receiver. Any failure aborts the
// sequence; atomicity of the partial effects is the execution environment's
// responsibility, the engine only fails loudly and consistently.
func (e *Engine) ExecuteOperation(ctx context.Context, caller, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) (ok bool, err error) {
	if err := e.reentry.Enter(); err != nil {
		e.metrics.failures.WithLabelValues("reentrancy").Inc()
		return false, err
	}
	defer e.reentry.Exit()

	e.metrics.attempts.Inc()
	defer func() {
		if err != nil {
			e.metrics.failures.WithLabelValues(failureReason(err)).Inc()
		}
	}()

	reqID := xxhash.Sum64(params)
	log := e.logger.With(zap.Uint64("request_id", reqID))

	if caller != e.cfg.LendingPool {
		return false, ErrUntrustedCaller
	}
	if asset != e.cfg.BaseAsset {
		return false, fmt.Errorf("%w: got %s", ErrAssetMismatch, asset.Hex())
	}
	if amount == nil || amount.Sign() <= 0 {
		return false, fmt.Errorf("invalid borrowed amount")
	}
	if premium == nil || premium.Sign() < 0 {
		return false, fmt.Errorf("invalid premium")
	}

	req, err := flashloan.DecodeParams(params)
	if err != nil {
		return false, err
	}
	req.BorrowedAsset = asset
	req.BorrowedAmount = amount
	req.Premium = premium

	// Checked once at entry, before any allowance is granted.
	if req.Deadline != nil && req.Deadline.Sign() > 0 && e.now().Unix() > req.Deadline.Int64() {
		return false, ErrDeadlineExceeded
	}

	if err := e.validateTarget(ctx, req.TargetToken); err != nil {
		return false, err
	}

	log.Info("Executing arbitrage",
		zap.String("target", req.TargetToken.Hex()),
		zap.String("amount", amount.String()),
		zap.String("premium", premium.String()))

	legStart := e.now()
	bought, err := e.strategy.SwapToTarget(ctx, req, amount)
	if err != nil {
		return false, fmt.Errorf("buy leg failed: %w", err)
	}
	e.metrics.legLatency.Observe(e.now().Sub(legStart).Seconds())

	// The sell leg consumes the realized target balance, not the buy
	// leg's reported output, so fee-on-transfer or rounding drift feeds
	// through instead of failing the allowance.
	targetBalance, err := e.tokens.Token(req.TargetToken).BalanceOf(ctx, e.cfg.Self)
	if err != nil {
		return false, fmt.Errorf("target balance read failed: %w", err)
	}

	legStart = e.now()
	if _, err := e.strategy.SwapToBase(ctx, req, targetBalance, bought); err != nil {
		return false, fmt.Errorf("sell leg failed: %w", err)
	}
	e.metrics.legLatency.Observe(e.now().Sub(legStart).Seconds())

	baseToken := e.tokens.Token(e.cfg.BaseAsset)
	finalBalance, err := baseToken.BalanceOf(ctx, e.cfg.Self)
	if err != nil {
		return false, fmt.Errorf("base balance read failed: %w", err)
	}

	profit, err := CheckRepayment(finalBalance, amount, premium, e.cfg.MinProfit)
	if err != nil {
		return false, err
	}

	owed := AmountOwed(amount, premium)
	if err := baseToken.Approve(ctx, e.cfg.LendingPool, owed); err != nil {
		return false, fmt.Errorf("repayment approval failed: %w", err)
	}

	e.metrics.successes.Inc()
	if profit != nil {
		e.metrics.profitWei.Add(bigmath.Float64(profit))
		log.Info("Arbitrage complete",
			zap.String("owed", owed.String()),
			zap.String("profit", profit.String()))
	} else {
		log.Info("Arbitrage complete", zap.String("owed", owed.String()))
	}

	return true, nil
}

// validateTarget probes the target token's decimals and rejects tokens
// whose probe fails or reports zero.
func (e *Engine) validateTarget(ctx context.Context, target common.Address) error {
	if e.decimals == nil {
		return nil
	}

	decimals, err := e.decimals.Decimals(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: decimals probe: %v", ErrInvalidToken, err)
	}
	if decimals == 0 {
		return fmt.Errorf("%w: zero decimals", ErrInvalidToken)
	}
	return nil
}

// Stats is a point-in-time snapshot of the engine's counters.
type Stats struct {
	Attempts  float64
	Successes float64
}

// GetStats reads the attempt and success counters back from their
// collectors.
func (e *Engine) GetStats() Stats {
	return Stats{
		Attempts:  counterValue(e.metrics.attempts),
		Successes: counterValue(e.metrics.successes),
	}
}

func counterValue(c prometheus.Counter) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	metric := <-ch

	out := &dto.Metric{}
	if err := metric.Write(out); err != nil || out.Counter == nil {
		return 0
	}
	return out.Counter.GetValue()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, guard.ErrReentrantCall):
		return "reentrancy"
	case errors.Is(err, ErrUntrustedCaller):
		return "untrusted_caller"
	case errors.Is(err, ErrAssetMismatch):
		return "asset_mismatch"
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrInsufficientRepayment):
		return "insufficient_repayment"
	case errors.Is(err, ErrInsufficientProfit):
		return "insufficient_profit"
	default:
		return "other"
	}
}
