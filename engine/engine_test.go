package engine

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/michaelpento.lv/flasharb/flashloan"
	"github.com/michaelpento.lv/flasharb/guard"
	"github.com/michaelpento.lv/flasharb/token"
)

var (
	testPool   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testBase   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testTarget = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	testSelf   = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
)

type approval struct {
	spender common.Address
	amount  *big.Int
}

// stubToken implements token.Token with settable balances and decimals.
type stubToken struct {
	mu          sync.Mutex
	balance     *big.Int
	decimals    uint8
	decimalsErr error
	approvals   []approval
}

func newStubToken(decimals uint8) *stubToken {
	return &stubToken{balance: big.NewInt(0), decimals: decimals}
}

func (t *stubToken) setBalance(v int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance = big.NewInt(v)
}

func (t *stubToken) BalanceOf(_ context.Context, _ common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance), nil
}

func (t *stubToken) Approve(_ context.Context, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.approvals = append(t.approvals, approval{spender: spender, amount: new(big.Int).Set(amount)})
	return nil
}

func (t *stubToken) Transfer(_ context.Context, _ common.Address, _ *big.Int) error {
	return nil
}

func (t *stubToken) Decimals(_ context.Context) (uint8, error) {
	if t.decimalsErr != nil {
		return 0, t.decimalsErr
	}
	return t.decimals, nil
}

type stubSource map[common.Address]*stubToken

func (s stubSource) Token(addr common.Address) token.Token {
	if t, ok := s[addr]; ok {
		return t
	}
	t := newStubToken(18)
	s[addr] = t
	return t
}

// stubStrategy delegates to settable leg functions.
type stubStrategy struct {
	swapToTarget func(ctx context.Context, req *flashloan.Request, amountIn *big.Int) (*big.Int, error)
	swapToBase   func(ctx context.Context, req *flashloan.Request, amountIn, bought *big.Int) (*big.Int, error)
}

func (s *stubStrategy) SwapToTarget(ctx context.Context, req *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
	if s.swapToTarget == nil {
		return amountIn, nil
	}
	return s.swapToTarget(ctx, req, amountIn)
}

func (s *stubStrategy) SwapToBase(ctx context.Context, req *flashloan.Request, amountIn, bought *big.Int) (*big.Int, error) {
	if s.swapToBase == nil {
		return amountIn, nil
	}
	return s.swapToBase(ctx, req, amountIn, bought)
}

func newTestEngine(t *testing.T, minProfit *big.Int, strategy *stubStrategy, src stubSource) *Engine {
	t.Helper()

	decimals, err := token.NewDecimalsCache(src, 8)
	require.NoError(t, err)

	eng, err := NewEngine(Config{
		Self:        testSelf,
		BaseAsset:   testBase,
		LendingPool: testPool,
		MinProfit:   minProfit,
	}, strategy, src, decimals, zaptest.NewLogger(t))
	require.NoError(t, err)

	return eng
}

func encodedParams(t *testing.T, deadline *big.Int) []byte {
	t.Helper()
	params, err := flashloan.EncodeParams(testTarget, 3000, big.NewInt(1), deadline)
	require.NoError(t, err)
	return params
}

func TestExecuteOperationUntrustedCaller(t *testing.T) {
	src := stubSource{}
	eng := newTestEngine(t, nil, &stubStrategy{}, src)

	attacker := common.HexToAddress("0x1234")
	ok, err := eng.ExecuteOperation(context.Background(), attacker, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUntrustedCaller)
}

func TestExecuteOperationAssetMismatch(t *testing.T) {
	src := stubSource{}
	swapped := false
	strategy := &stubStrategy{
		swapToTarget: func(_ context.Context, _ *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
			swapped = true
			return amountIn, nil
		},
	}
	eng := newTestEngine(t, nil, strategy, src)

	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	ok, err := eng.ExecuteOperation(context.Background(), testPool, other, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrAssetMismatch)
	assert.False(t, swapped, "no swaps may be attempted on asset mismatch")
}

func TestExecuteOperationDeadlineExceeded(t *testing.T) {
	src := stubSource{testBase: newStubToken(18)}
	eng := newTestEngine(t, nil, &stubStrategy{}, src)

	now := time.Unix(2_000_000, 0)
	eng.now = func() time.Time { return now }

	deadline := big.NewInt(now.Unix() - 1)
	ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, deadline))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	assert.Empty(t, src[testBase].approvals, "no allowance may be granted after the deadline")
}

func TestExecuteOperationInvalidToken(t *testing.T) {
	t.Run("ProbeFails", func(t *testing.T) {
		target := newStubToken(18)
		target.decimalsErr = assert.AnError
		src := stubSource{testTarget: target}
		eng := newTestEngine(t, nil, &stubStrategy{}, src)

		ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ZeroDecimals", func(t *testing.T) {
		src := stubSource{testTarget: newStubToken(0)}
		eng := newTestEngine(t, nil, &stubStrategy{}, src)

		ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExecuteOperationHappyPath(t *testing.T) {
	baseToken := newStubToken(18)
	targetToken := newStubToken(18)
	src := stubSource{testBase: baseToken, testTarget: targetToken}

	var sellInput *big.Int
	strategy := &stubStrategy{
		swapToTarget: func(_ context.Context, _ *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
			require.Equal(t, "100", amountIn.String())
			// Realized balance drifts below the reported output.
			targetToken.setBalance(47)
			return big.NewInt(50), nil
		},
		swapToBase: func(_ context.Context, _ *flashloan.Request, amountIn, bought *big.Int) (*big.Int, error) {
			sellInput = new(big.Int).Set(amountIn)
			require.Equal(t, "50", bought.String())
			baseToken.setBalance(103)
			return big.NewInt(103), nil
		},
	}

	eng := newTestEngine(t, big.NewInt(0), strategy, src)

	ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	require.NoError(t, err)
	assert.True(t, ok)

	// Sell leg consumes the realized balance, not the reported output.
	require.NotNil(t, sellInput)
	assert.Equal(t, "47", sellInput.String())

	// The lending pool's allowance covers exactly amount plus premium.
	require.Len(t, baseToken.approvals, 1)
	assert.Equal(t, testPool, baseToken.approvals[0].spender)
	assert.Equal(t, "101", baseToken.approvals[0].amount.String())

	stats := eng.GetStats()
	assert.Equal(t, float64(1), stats.Attempts)
	assert.Equal(t, float64(1), stats.Successes)
}

func TestExecuteOperationInsufficientRepayment(t *testing.T) {
	baseToken := newStubToken(18)
	src := stubSource{testBase: baseToken, testTarget: newStubToken(18)}

	strategy := &stubStrategy{
		swapToBase: func(_ context.Context, _ *flashloan.Request, amountIn, _ *big.Int) (*big.Int, error) {
			baseToken.setBalance(99)
			return big.NewInt(99), nil
		},
	}
	eng := newTestEngine(t, nil, strategy, src)

	ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInsufficientRepayment)
	assert.Empty(t, baseToken.approvals, "no repayment allowance on failure")
}

func TestExecuteOperationReentrancy(t *testing.T) {
	baseToken := newStubToken(18)
	src := stubSource{testBase: baseToken, testTarget: newStubToken(18)}

	var eng *Engine
	var innerErr error
	strategy := &stubStrategy{
		swapToTarget: func(ctx context.Context, _ *flashloan.Request, amountIn *big.Int) (*big.Int, error) {
			// Malicious router calls back into the engine mid-flight.
			_, innerErr = eng.ExecuteOperation(ctx, testPool, testBase, big.NewInt(1), big.NewInt(0), testSelf, encodedParams(t, nil))
			return nil, innerErr
		},
	}
	eng = newTestEngine(t, nil, strategy, src)

	ok, err := eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, innerErr, guard.ErrReentrantCall)

	// The guard returns to idle once the outer call unwinds: a fresh
	// attempt gets past the lock.
	strategy.swapToTarget = nil
	strategy.swapToBase = func(_ context.Context, _ *flashloan.Request, _, _ *big.Int) (*big.Int, error) {
		baseToken.setBalance(101)
		return big.NewInt(101), nil
	}
	ok, err = eng.ExecuteOperation(context.Background(), testPool, testBase, big.NewInt(100), big.NewInt(1), testSelf, encodedParams(t, nil))
	require.NoError(t, err)
	assert.True(t, ok)
}
