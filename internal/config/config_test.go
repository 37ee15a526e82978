package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (suite *ConfigTestSuite) TestDefaultIsValid() {
	suite.NoError(Default().Validate())
}

func (suite *ConfigTestSuite) TestLoadOverridesDefaults() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")

	yaml := `
product: ETH-USD
feed:
  provider: binance
  poll_interval: 2s
trading:
  initial_cash: 25000
  max_positions: 2
  max_orders: 4
strategy:
  name: bollinger
  bollinger:
    window: 20
    min_samples: 20
    std_dev_mult: 2.0
    stop_k_range: 1.5
    stop_floor_frac: 0.02
`
	suite.Require().NoError(os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal("ETH-USD", cfg.Product)
	suite.Equal(FeedBinance, cfg.Feed.Provider)
	suite.Equal(Duration(2*time.Second), cfg.Feed.PollInterval)
	suite.InDelta(25_000, cfg.Trading.InitialCash, 1e-9)
	suite.Equal(StrategyBollinger, cfg.Strategy.Name)

	// Untouched fields keep their defaults.
	suite.InDelta(1_000, cfg.Trading.NotionalPerTrade, 1e-9)
	suite.InDelta(0.006, cfg.Cost.TakerFee, 1e-12)
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load("/does/not/exist.yaml")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestRejectsOrderCapBelowPositionCap() {
	cfg := Default()
	cfg.Trading.MaxOrders = 2
	cfg.Trading.MaxPositions = 3

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestRejectsStrategyWithoutItsConfig() {
	cfg := Default()
	cfg.Strategy.Name = StrategyBollinger
	cfg.Strategy.Bollinger = nil

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *ConfigTestSuite) TestRejectsExitAboveEntryThreshold() {
	cfg := Default()
	cfg.Strategy.ZScore.ExitZ = 3.0

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidThreshold))
}

func (suite *ConfigTestSuite) TestRejectsMinSamplesAboveWindow() {
	cfg := Default()
	cfg.Strategy.ZScore.MinSamples = 120

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *ConfigTestSuite) TestRejectsBandHorizonNotShorterThanLong() {
	cfg := Default()
	cfg.Strategy = StrategyConfig{
		Name: StrategyBreakout,
		Breakout: &BreakoutConfig{
			BandHorizon:      Duration(10 * time.Minute),
			LongHorizon:      Duration(2 * time.Minute),
			BiasHorizon:      Duration(15 * time.Minute),
			MinBandSamples:   5,
			MinLongSamples:   60,
			RejectionTimeout: Duration(10 * time.Second),
			ContractionMax:   0.35,
			StopKRange:       1.5,
		},
	}

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidHorizon))
}

func (suite *ConfigTestSuite) TestRejectsFastWindowNotBelowSlow() {
	cfg := Default()
	cfg.Strategy = StrategyConfig{
		Name: StrategyTrend,
		Trend: &TrendConfig{
			FastWindow: 200,
			SlowWindow: 50,
			FeeGapMult: 2.5,
			GapFrac:    0.5,
			StopMult:   2.0,
			TrailMult:  2.0,
		},
	}

	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestRejectsTakeProfitOutsideEntryBand() {
	cfg := Default()
	cfg.Strategy = StrategyConfig{
		Name: StrategyRestingLimit,
		RestingLimit: &RestingLimitConfig{
			Window:        60,
			MinSamples:    30,
			LongEntryZ:    -1.5,
			ShortEntryZ:   1.5,
			TakeProfitZ:   2.0,
			StopLossSigma: 2.0,
			NotionalFrac:  0.10,
		},
	}

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidThreshold))
}

func (suite *ConfigTestSuite) TestRejectsUnknownStrategy() {
	cfg := Default()
	cfg.Strategy.Name = "momentum"

	suite.Error(cfg.Validate())
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
