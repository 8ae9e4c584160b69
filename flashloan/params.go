package flashloan

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Request is the decoded per-loan arbitrage order. It exists only for the
// duration of one callback; nothing here is persisted.
type Request struct {
	BorrowedAsset  common.Address
	BorrowedAmount *big.Int
	Premium        *big.Int

	TargetToken common.Address
	FeeTier     uint32   // fixed-fee variant: pool fee tier in hundredths of a bip
	MinOutBuy   *big.Int // minimum acceptable output of the buy leg
	Deadline    *big.Int // unix seconds; zero means no deadline
}

var paramsArguments abi.Arguments

func init() {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint24Type, err := abi.NewType("uint24", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}

	paramsArguments = abi.Arguments{
		{Name: "targetToken", Type: addressType},
		{Name: "feeTier", Type: uint24Type},
		{Name: "minOutBuy", Type: uint256Type},
		{Name: "deadline", Type: uint256Type},
	}
}

// EncodeParams packs the caller-supplied swap parameters into the opaque
// payload forwarded through the lending facility.
func EncodeParams(targetToken common.Address, feeTier uint32, minOutBuy, deadline *big.Int) ([]byte, error) {
	if minOutBuy == nil {
		minOutBuy = big.NewInt(0)
	}
	if deadline == nil {
		deadline = big.NewInt(0)
	}

	data, err := paramsArguments.Pack(targetToken, big.NewInt(int64(feeTier)), minOutBuy, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to pack loan params: %w", err)
	}
	return data, nil
}

// DecodeParams unpacks the payload produced by EncodeParams.
func DecodeParams(data []byte) (*Request, error) {
	values, err := paramsArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack loan params: %w", err)
	}

	req := &Request{
		TargetToken: values[0].(common.Address),
		FeeTier:     uint32(values[1].(*big.Int).Uint64()),
		MinOutBuy:   values[2].(*big.Int),
		Deadline:    values[3].(*big.Int),
	}
	return req, nil
}
