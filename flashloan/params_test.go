package flashloan

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsRoundTrip(t *testing.T) {
	target := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	data, err := EncodeParams(target, 3000, big.NewInt(12345), big.NewInt(1700000000))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	req, err := DecodeParams(data)
	require.NoError(t, err)

	assert.Equal(t, target, req.TargetToken)
	assert.Equal(t, uint32(3000), req.FeeTier)
	assert.Equal(t, "12345", req.MinOutBuy.String())
	assert.Equal(t, "1700000000", req.Deadline.String())
}

func TestEncodeParamsNilDefaults(t *testing.T) {
	target := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	data, err := EncodeParams(target, 500, nil, nil)
	require.NoError(t, err)

	req, err := DecodeParams(data)
	require.NoError(t, err)
	assert.Equal(t, int64(0), req.MinOutBuy.Int64())
	assert.Equal(t, int64(0), req.Deadline.Int64())
}

func TestDecodeParamsTruncated(t *testing.T) {
	target := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	data, err := EncodeParams(target, 3000, big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)

	_, err = DecodeParams(data[:len(data)-16])
	assert.Error(t, err)

	_, err = DecodeParams(nil)
	assert.Error(t, err)
}
