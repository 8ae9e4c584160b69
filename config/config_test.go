package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.RPCEndpoint = "http://localhost:8545"
	cfg.Owner = "0x1111111111111111111111111111111111111111"
	cfg.EngineAddress = "0xdddddddddddddddddddddddddddddddddddddddd"
	cfg.BaseAsset = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	cfg.WrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	cfg.Router = "0xE592427A0AEce92De3Edee1F18E0157C05861564"
	cfg.LendingPool = "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, validConfig().ValidateConfig())
	})

	t.Run("AggregatesErrors", func(t *testing.T) {
		cfg := validConfig()
		cfg.RPCEndpoint = ""
		cfg.Owner = "not-an-address"
		cfg.Strategy = "bogus"

		err := cfg.ValidateConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc_endpoint")
		assert.Contains(t, err.Error(), "owner")
		assert.Contains(t, err.Error(), "strategy")
	})

	t.Run("PathStrategyNeedsSlippage", func(t *testing.T) {
		cfg := validConfig()
		cfg.Strategy = StrategyPath
		cfg.SlippageToleranceBps = 0
		assert.Error(t, cfg.ValidateConfig())

		cfg.SlippageToleranceBps = 200
		assert.NoError(t, cfg.ValidateConfig())
	})

	t.Run("MinProfitMustParse", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinProfitWei = "abc"
		assert.Error(t, cfg.ValidateConfig())

		cfg.MinProfitWei = "1000000000000000000"
		require.NoError(t, cfg.ValidateConfig())
		require.NotNil(t, cfg.MinProfit())
		assert.Equal(t, "1000000000000000000", cfg.MinProfit().String())
	})
}

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	data := `{
		"rpc_endpoint": "http://localhost:8545",
		"owner": "0x1111111111111111111111111111111111111111",
		"engine_address": "0xdddddddddddddddddddddddddddddddddddddddd",
		"base_asset": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"router": "0xE592427A0AEce92De3Edee1F18E0157C05861564",
		"lending_pool": "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2",
		"strategy": "path",
		"slippage_tolerance_bps": 150
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyPath, cfg.Strategy)
	assert.Equal(t, uint32(150), cfg.SlippageToleranceBps)
	// Defaults survive a partial file.
	assert.Equal(t, uint16(9), cfg.PremiumBps)
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `rpc_endpoint: http://localhost:8545
owner: "0x1111111111111111111111111111111111111111"
engine_address: "0xdddddddddddddddddddddddddddddddddddddddd"
base_asset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
router: "0xE592427A0AEce92De3Edee1F18E0157C05861564"
lending_pool: "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"
strategy: fixed-fee
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyFixedFee, cfg.Strategy)
	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Run("FallsBackToDefault", func(t *testing.T) {
		t.Setenv(EnvRPCEndpoint, "")
		assert.Equal(t, "http://localhost:8545", GetEnvWithDefault(EnvRPCEndpoint, "http://localhost:8545"))
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv(EnvRPCEndpoint, "ws://node.internal:8546")
		assert.Equal(t, "ws://node.internal:8546", GetEnvWithDefault(EnvRPCEndpoint, "http://localhost:8545"))
	})
}
