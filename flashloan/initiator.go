package flashloan

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/guard"
	bigmath "github.com/michaelpento.lv/flasharb/utils/math"
)

// ErrSelfArbitrage is returned when the requested target token is the base
// asset itself.
var ErrSelfArbitrage = errors.New("target token equals base asset")

// ErrPremiumMismatch is returned when the pool's on-chain premium exceeds
// the locally configured one.
var ErrPremiumMismatch = errors.New("pool premium exceeds configured premium")

// PremiumQuoter reports a lender's loan fee. Lenders that implement it have
// their premium checked against the live pool rate before a loan is
// submitted.
type PremiumQuoter interface {
	Premium(amount *big.Int) (*big.Int, error)
	PremiumTotal(ctx context.Context) (*big.Int, error)
}

// RequestOpts carries the caller-supplied swap bounds for one loan.
type RequestOpts struct {
	FeeTier   uint32
	MinOutBuy *big.Int
	Deadline  *big.Int
}

// Initiator is the owner-gated entry point that encodes an arbitrage order
// and requests the loan that drives it.
type Initiator struct {
	access    *guard.AccessGuard
	lender    Lender
	receiver  common.Address
	baseAsset common.Address
	logger    *zap.Logger
}

// NewInitiator creates a loan initiator naming receiver as the repayment
// callback target.
func NewInitiator(access *guard.AccessGuard, lender Lender, receiver, baseAsset common.Address, logger *zap.Logger) (*Initiator, error) {
	if access == nil {
		return nil, fmt.Errorf("access guard cannot be nil")
	}
	if lender == nil {
		return nil, fmt.Errorf("lender cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Initiator{
		access:    access,
		lender:    lender,
		receiver:  receiver,
		baseAsset: baseAsset,
		logger:    logger,
	}, nil
}

// RequestLoan encodes the order and submits the flash loan request. The
// borrowed asset is always the configured base asset.
func (i *Initiator) RequestLoan(ctx context.Context, caller, targetToken common.Address, amount *big.Int, opts RequestOpts) error {
	if err := i.access.RequireOwner(caller); err != nil {
		return err
	}

	if targetToken == i.baseAsset {
		return ErrSelfArbitrage
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("invalid loan amount")
	}

	if quoter, ok := i.lender.(PremiumQuoter); ok {
		if err := i.checkPremium(ctx, quoter, amount); err != nil {
			return err
		}
	}

	params, err := EncodeParams(targetToken, opts.FeeTier, opts.MinOutBuy, opts.Deadline)
	if err != nil {
		return err
	}

	i.logger.Info("Requesting flash loan",
		zap.String("asset", i.baseAsset.Hex()),
		zap.String("target", targetToken.Hex()),
		zap.String("amount", amount.String()))

	if err := i.lender.FlashLoan(ctx, i.receiver, i.baseAsset, amount, params, 0); err != nil {
		return fmt.Errorf("flash loan request failed: %w", err)
	}

	return nil
}

// checkPremium rejects the request when the pool's live premium rate would
// charge more than the configured one. A failed rate read only loses the
// pre-flight check; the callback still enforces repayment.
func (i *Initiator) checkPremium(ctx context.Context, quoter PremiumQuoter, amount *big.Int) error {
	expected, err := quoter.Premium(amount)
	if err != nil {
		return fmt.Errorf("premium computation failed: %w", err)
	}

	liveBps, err := quoter.PremiumTotal(ctx)
	if err != nil {
		i.logger.Warn("Pool premium read failed", zap.Error(err))
		return nil
	}

	live := new(big.Int).Mul(amount, liveBps)
	live.Div(live, big.NewInt(bigmath.BpsDenominator))
	if live.Cmp(expected) > 0 {
		return fmt.Errorf("%w: pool charges %s, configured %s", ErrPremiumMismatch, live.String(), expected.String())
	}

	i.logger.Info("Loan premium verified", zap.String("premium", expected.String()))
	return nil
}
