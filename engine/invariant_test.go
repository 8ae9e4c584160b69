package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRepayment(t *testing.T) {
	tests := []struct {
		name       string
		final      int64
		borrowed   int64
		premium    int64
		minProfit  *big.Int
		wantErr    error
		wantProfit *big.Int
	}{
		{
			name:     "shortfall fails",
			final:    99,
			borrowed: 100,
			premium:  1,
			wantErr:  ErrInsufficientRepayment,
		},
		{
			name:       "surplus with zero floor succeeds",
			final:      103,
			borrowed:   100,
			premium:    1,
			minProfit:  big.NewInt(0),
			wantProfit: big.NewInt(2),
		},
		{
			name:     "exact repayment without floor succeeds",
			final:    101,
			borrowed: 100,
			premium:  1,
		},
		{
			name:      "exact repayment below floor fails",
			final:     101,
			borrowed:  100,
			premium:   1,
			minProfit: big.NewInt(1),
			wantErr:   ErrInsufficientProfit,
		},
		{
			name:       "surplus meets floor",
			final:      105,
			borrowed:   100,
			premium:    1,
			minProfit:  big.NewInt(4),
			wantProfit: big.NewInt(4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, err := CheckRepayment(big.NewInt(tt.final), big.NewInt(tt.borrowed), big.NewInt(tt.premium), tt.minProfit)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, profit)
				return
			}

			require.NoError(t, err)
			if tt.wantProfit == nil {
				// No floor configured: profit is never computed.
				assert.Nil(t, profit)
			} else {
				require.NotNil(t, profit)
				assert.Equal(t, tt.wantProfit.String(), profit.String())
			}
		})
	}
}

func TestCheckRepaymentRejectsBadInputs(t *testing.T) {
	_, err := CheckRepayment(nil, big.NewInt(1), big.NewInt(0), nil)
	assert.Error(t, err)

	_, err = CheckRepayment(big.NewInt(-1), big.NewInt(1), big.NewInt(0), nil)
	assert.Error(t, err)

	_, err = CheckRepayment(big.NewInt(1), big.NewInt(1), big.NewInt(-1), nil)
	assert.Error(t, err)
}

func TestAmountOwed(t *testing.T) {
	owed := AmountOwed(big.NewInt(100), big.NewInt(1))
	assert.Equal(t, "101", owed.String())
}
