package treasury

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/guard"
	"github.com/michaelpento.lv/flasharb/token"
)

// NativeSender moves native coin out of the engine identity.
type NativeSender interface {
	SendNative(ctx context.Context, to common.Address, value *big.Int) error
}

// Treasury inspects and withdraws the engine's held balances.
type Treasury struct {
	access        *guard.AccessGuard
	tokens        token.Source
	native        NativeSender
	self          common.Address
	wrappedNative common.Address
	wrapped       token.WrappedNative
	logger        *zap.Logger
}

// New creates a treasury over the engine identity's balances. wrapped may
// be nil when no wrapped-native token is configured; when it is set, a
// native sender is required to deliver the unwrapped coin.
func New(access *guard.AccessGuard, tokens token.Source, native NativeSender, self common.Address, wrappedNative common.Address, wrapped token.WrappedNative, logger *zap.Logger) (*Treasury, error) {
	if access == nil {
		return nil, fmt.Errorf("access guard cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}
	if wrapped != nil && native == nil {
		return nil, fmt.Errorf("native sender required for wrapped-native withdrawals")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Treasury{
		access:        access,
		tokens:        tokens,
		native:        native,
		self:          self,
		wrappedNative: wrappedNative,
		wrapped:       wrapped,
		logger:        logger,
	}, nil
}

// Balance returns the held balance of any token. No authorization required.
func (t *Treasury) Balance(ctx context.Context, tokenAddr common.Address) (*big.Int, error) {
	return t.tokens.Token(tokenAddr).BalanceOf(ctx, t.self)
}

// Withdraw transfers the full held balance of tokenAddr to the owner. The
// wrapped-native token is unwrapped and delivered as native coin; once
// unwrapped, the wrapped balance is gone, so an ERC20 transfer of it would
// revert. A zero balance is not an error.
func (t *Treasury) Withdraw(ctx context.Context, caller, tokenAddr common.Address) error {
	if err := t.access.RequireOwner(caller); err != nil {
		return err
	}

	balance, err := t.Balance(ctx, tokenAddr)
	if err != nil {
		return fmt.Errorf("balance read failed: %w", err)
	}

	if tokenAddr == t.wrappedNative && t.wrapped != nil {
		if err := t.wrapped.Withdraw(ctx, balance); err != nil {
			return fmt.Errorf("unwrap failed: %w", err)
		}
		if err := t.native.SendNative(ctx, t.access.Owner(), balance); err != nil {
			return fmt.Errorf("native withdrawal failed: %w", err)
		}
	} else {
		if err := t.tokens.Token(tokenAddr).Transfer(ctx, t.access.Owner(), balance); err != nil {
			return fmt.Errorf("withdrawal transfer failed: %w", err)
		}
	}

	t.logger.Info("Withdrawal complete",
		zap.String("token", tokenAddr.Hex()),
		zap.String("amount", balance.String()))

	return nil
}
