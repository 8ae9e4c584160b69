package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token exposes the ERC20 surface the engine consumes.
type Token interface {
	// BalanceOf returns the held balance of the given account.
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)

	// Approve grants spender an allowance for exactly amount.
	Approve(ctx context.Context, spender common.Address, amount *big.Int) error

	// Transfer moves amount to the given recipient.
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error

	// Decimals returns the token's decimal precision.
	Decimals(ctx context.Context) (uint8, error)
}

// WrappedNative is a Token that can be unwrapped to the native asset.
type WrappedNative interface {
	Token

	// Withdraw unwraps amount of the wrapped token into native form.
	Withdraw(ctx context.Context, amount *big.Int) error
}

// Source resolves token contract addresses to bound Token clients.
type Source interface {
	Token(addr common.Address) Token
}
