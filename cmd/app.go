package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/flasharb/config"
	"github.com/michaelpento.lv/flasharb/dex/uniswap"
	"github.com/michaelpento.lv/flasharb/engine"
	"github.com/michaelpento.lv/flasharb/flashloan"
	"github.com/michaelpento.lv/flasharb/flashloan/aave"
	"github.com/michaelpento.lv/flasharb/guard"
	"github.com/michaelpento.lv/flasharb/swap"
	"github.com/michaelpento.lv/flasharb/token"
	"github.com/michaelpento.lv/flasharb/treasury"
)

// app wires the engine and its collaborators from the loaded configuration.
type app struct {
	cfg       *config.Config
	client    *ethclient.Client
	tx        *token.Transactor
	tokens    *token.ClientSource
	engine    *engine.Engine
	initiator *flashloan.Initiator
	treasury  *treasury.Treasury
	logger    *zap.Logger
}

func newApp(logger *zap.Logger) (*app, error) {
	if err := config.LoadEnv(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	secure, err := config.LoadSecureConfig()
	if err != nil {
		return nil, err
	}

	// FLASHARB_RPC_ENDPOINT overrides the configured endpoint.
	endpoint := config.GetEnvWithDefault(config.EnvRPCEndpoint, cfg.RPCEndpoint)
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum node: %w", err)
	}

	tx, err := token.NewTransactor(client, secure.PrivateKey)
	if err != nil {
		return nil, err
	}

	tokens := token.NewClientSource(client, tx)
	decimals, err := token.NewDecimalsCache(tokens, cfg.DecimalsCacheSize)
	if err != nil {
		return nil, err
	}

	access := guard.NewAccessGuard(cfg.OwnerAddress())

	var strategy swap.Strategy
	var minProfit = cfg.MinProfit()
	switch cfg.Strategy {
	case config.StrategyFixedFee:
		router, err := uniswap.NewV3(client, tx, cfg.RouterAddress(), logger)
		if err != nil {
			return nil, err
		}
		strategy, err = swap.NewFixedFee(router, cfg.RouterAddress(), tokens, cfg.BaseAssetAddress(), cfg.EngineAddr(), logger)
		if err != nil {
			return nil, err
		}
		// The fixed-fee variant carries no profit floor.
		minProfit = nil
	case config.StrategyPath:
		limiter := rate.NewLimiter(rate.Limit(cfg.QuoteRatePerSecond), cfg.QuoteBurst)
		router, err := uniswap.NewV2(client, tx, cfg.RouterAddress(), limiter, logger)
		if err != nil {
			return nil, err
		}
		strategy, err = swap.NewPathBased(router, cfg.RouterAddress(), tokens, cfg.BaseAssetAddress(), cfg.EngineAddr(), cfg.SlippageToleranceBps, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}

	eng, err := engine.NewEngine(engine.Config{
		Self:        cfg.EngineAddr(),
		BaseAsset:   cfg.BaseAssetAddress(),
		LendingPool: cfg.LendingPoolAddress(),
		MinProfit:   minProfit,
	}, strategy, tokens, decimals, logger)
	if err != nil {
		return nil, err
	}

	pool, err := aave.NewPool(client, tx, &aave.PoolConfig{
		PoolAddress: cfg.LendingPoolAddress(),
		PremiumBps:  cfg.PremiumBps,
	}, logger)
	if err != nil {
		return nil, err
	}

	initiator, err := flashloan.NewInitiator(access, pool, cfg.EngineAddr(), cfg.BaseAssetAddress(), logger)
	if err != nil {
		return nil, err
	}

	var wrapped token.WrappedNative
	if cfg.WrappedNative != "" {
		weth, err := token.NewWETH(client, tx, cfg.WrappedNativeAddress())
		if err != nil {
			return nil, err
		}
		wrapped = weth
	}

	treas, err := treasury.New(access, tokens, tx, cfg.EngineAddr(), cfg.WrappedNativeAddress(), wrapped, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		client:    client,
		tx:        tx,
		tokens:    tokens,
		engine:    eng,
		initiator: initiator,
		treasury:  treas,
		logger:    logger,
	}, nil
}

func (a *app) Close() {
	a.client.Close()
}
