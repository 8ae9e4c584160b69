package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// Strategy variant names
const (
	StrategyFixedFee = "fixed-fee"
	StrategyPath     = "path"
)

// Config is the process-wide engine configuration. It is loaded once at
// startup and never mutated afterwards; there is no setter surface.
type Config struct {
	// Chain and network settings
	RPCEndpoint string `json:"rpc_endpoint" yaml:"rpc_endpoint"`

	// Identities
	Owner         string `json:"owner" yaml:"owner"`
	EngineAddress string `json:"engine_address" yaml:"engine_address"`

	// Collaborator contracts
	BaseAsset     string `json:"base_asset" yaml:"base_asset"`
	WrappedNative string `json:"wrapped_native" yaml:"wrapped_native"`
	Router        string `json:"router" yaml:"router"`
	LendingPool   string `json:"lending_pool" yaml:"lending_pool"`

	// Strategy selection and bounds
	Strategy             string `json:"strategy" yaml:"strategy"`
	SlippageToleranceBps uint32 `json:"slippage_tolerance_bps" yaml:"slippage_tolerance_bps"`
	MinProfitWei         string `json:"min_profit_wei" yaml:"min_profit_wei"`

	// Lending pool premium in basis points
	PremiumBps uint16 `json:"premium_bps" yaml:"premium_bps"`

	// RPC quote rate limit
	QuoteRatePerSecond float64 `json:"quote_rate_per_second" yaml:"quote_rate_per_second"`
	QuoteBurst         int     `json:"quote_burst" yaml:"quote_burst"`

	// Network settings
	NetworkTimeout time.Duration `json:"network_timeout" yaml:"network_timeout"`

	// Token decimals cache size
	DecimalsCacheSize int `json:"decimals_cache_size" yaml:"decimals_cache_size"`
}

// OwnerAddress returns the owner identity.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// EngineAddr returns the engine's own identity.
func (c *Config) EngineAddr() common.Address {
	return common.HexToAddress(c.EngineAddress)
}

// BaseAssetAddress returns the base asset contract address.
func (c *Config) BaseAssetAddress() common.Address {
	return common.HexToAddress(c.BaseAsset)
}

// WrappedNativeAddress returns the wrapped-native contract address.
func (c *Config) WrappedNativeAddress() common.Address {
	return common.HexToAddress(c.WrappedNative)
}

// RouterAddress returns the AMM router contract address.
func (c *Config) RouterAddress() common.Address {
	return common.HexToAddress(c.Router)
}

// LendingPoolAddress returns the lending pool contract address.
func (c *Config) LendingPoolAddress() common.Address {
	return common.HexToAddress(c.LendingPool)
}

// MinProfit returns the configured profit floor, or nil when none is set.
// Only meaningful for the path strategy.
func (c *Config) MinProfit() *big.Int {
	if c.MinProfitWei == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(c.MinProfitWei, 10)
	if !ok {
		return nil
	}
	return v
}

// ValidateConfig checks the loaded configuration, aggregating all problems
// into one error.
func (c *Config) ValidateConfig() error {
	var errs []string

	if c.RPCEndpoint == "" {
		errs = append(errs, "rpc_endpoint must be specified")
	}

	for name, value := range map[string]string{
		"owner":          c.Owner,
		"engine_address": c.EngineAddress,
		"base_asset":     c.BaseAsset,
		"router":         c.Router,
		"lending_pool":   c.LendingPool,
	} {
		if !common.IsHexAddress(value) {
			errs = append(errs, fmt.Sprintf("%s must be a hex address", name))
		}
	}
	if c.WrappedNative != "" && !common.IsHexAddress(c.WrappedNative) {
		errs = append(errs, "wrapped_native must be a hex address")
	}

	switch c.Strategy {
	case StrategyFixedFee:
	case StrategyPath:
		if c.SlippageToleranceBps == 0 || c.SlippageToleranceBps >= 10000 {
			errs = append(errs, "slippage_tolerance_bps must be in (0, 10000)")
		}
	default:
		errs = append(errs, fmt.Sprintf("strategy must be %q or %q", StrategyFixedFee, StrategyPath))
	}

	if c.MinProfitWei != "" {
		if v, ok := new(big.Int).SetString(c.MinProfitWei, 10); !ok || v.Sign() < 0 {
			errs = append(errs, "min_profit_wei must be a non-negative integer")
		}
	}

	if c.QuoteRatePerSecond < 0 {
		errs = append(errs, "quote_rate_per_second cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LoadConfig reads the config file at path; YAML or JSON is selected by the
// file extension. An empty path falls back to $HOME/.flasharb.json.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".flasharb.json")
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch ext := filepath.Ext(cfgFile); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a config with sane operational defaults. Addresses
// and endpoints still have to come from a config file or environment.
func DefaultConfig() *Config {
	return &Config{
		Strategy:           StrategyFixedFee,
		PremiumBps:         9, // Aave V3 default, 0.09%
		QuoteRatePerSecond: 10,
		QuoteBurst:         20,
		NetworkTimeout:     5 * time.Second,
		DecimalsCacheSize:  256,
	}
}
