package math

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulBps(t *testing.T) {
	assert.Equal(t, "98", MulBps(big.NewInt(100), 9800).String())
	assert.Equal(t, "0", MulBps(nil, 9800).String())
	assert.Equal(t, "0", MulBps(big.NewInt(0), 500).String())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "47", Percent(big.NewInt(50), 95).String())
	assert.Equal(t, "0", Percent(nil, 95).String())
}

func TestCheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(big.NewInt(100), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "101", sum.String())

	_, err = CheckedAdd(nil, big.NewInt(1))
	assert.Error(t, err)

	_, err = CheckedAdd(big.NewInt(-1), big.NewInt(1))
	assert.Error(t, err)
}

func TestCheckedSub(t *testing.T) {
	diff, err := CheckedSub(big.NewInt(103), big.NewInt(101))
	require.NoError(t, err)
	assert.Equal(t, "2", diff.String())

	_, err = CheckedSub(big.NewInt(99), big.NewInt(101))
	assert.Error(t, err)
}

func TestFloat64(t *testing.T) {
	assert.Equal(t, 0.0, Float64(nil))
	assert.Equal(t, 123.0, Float64(big.NewInt(123)))

	// 2^80 wei: far beyond uint64 range, must not wrap to a small value.
	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	assert.Equal(t, 1.2089258196146292e24, Float64(huge))

	wide := new(big.Int).Add(huge, big.NewInt(3))
	assert.Greater(t, Float64(wide), 1.8e19)
}
