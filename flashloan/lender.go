package flashloan

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Lender is the facility that grants uncollateralized loans repaid within
// the same transaction. After the receiver's callback returns true, the
// facility pulls amount plus premium using a previously granted allowance.
type Lender interface {
	FlashLoan(ctx context.Context, receiver common.Address, asset common.Address, amount *big.Int, params []byte, referralCode uint16) error
}

// Receiver is the repayment callback the facility invokes mid-loan. caller
// identifies the facility itself; initiator is whoever asked it for the
// loan and carries no authority.
type Receiver interface {
	// ExecuteOperation runs with the borrowed funds already credited. It
	// must leave the facility an allowance of amount+premium and return
	// true, or fail and void the whole transaction.
	ExecuteOperation(ctx context.Context, caller, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) (bool, error)
}
