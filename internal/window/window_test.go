package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

var windowStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type WindowTestSuite struct {
	suite.Suite
}

func (suite *WindowTestSuite) feed(store *Store, spacing time.Duration, prices ...float64) {
	for i, px := range prices {
		store.Update(types.PriceTick{Time: windowStart.Add(time.Duration(i) * spacing), Price: px})
	}
}

func (suite *WindowTestSuite) TestRejectsInvalidConfigs() {
	_, err := NewStore(Config{ID: "", Capacity: 10})
	suite.Error(err)

	_, err = NewStore(Config{ID: "w", Horizon: time.Minute, Capacity: 10})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidHorizon))

	_, err = NewStore(Config{ID: "w"})
	suite.Error(err)

	_, err = NewStore(Config{ID: "w", Capacity: 10}, Config{ID: "w", Capacity: 20})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateWindowID))
}

func (suite *WindowTestSuite) TestCapacityEviction() {
	store, err := NewStore(Config{ID: "w", Capacity: 3, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 1, 2, 3, 4, 5)
	suite.Equal(3, store.Size("w"))

	stats, err := store.Snapshot("w")
	suite.Require().NoError(err)
	suite.InDelta(4, stats.Mean, 1e-12)
	suite.InDelta(3, stats.Min, 1e-12)
	suite.InDelta(5, stats.Max, 1e-12)
}

// A 120s horizon fed one tick per second holds the tick at the cutoff and
// everything after it: 121 samples once warm, never 122.
func (suite *WindowTestSuite) TestHorizonEvictionBoundary() {
	store, err := NewStore(Config{ID: "w", Horizon: 120 * time.Second, MinSamples: 2})
	suite.Require().NoError(err)

	for i := 0; i < 200; i++ {
		store.Update(types.PriceTick{Time: windowStart.Add(time.Duration(i) * time.Second), Price: 100})
		if i >= 121 {
			suite.Equal(121, store.Size("w"), "at tick %d", i)
		}
	}
}

func (suite *WindowTestSuite) TestBesselCorrectedStd() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 2, 4, 4, 4, 5, 5, 7, 9)

	stats, err := store.Snapshot("w")
	suite.Require().NoError(err)
	suite.InDelta(5.0, stats.Mean, 1e-12)

	// Sum of squared deviations is 32; sample variance 32/7.
	suite.InDelta(2.13809, stats.Std, 1e-4)
	suite.Equal(8, stats.Samples)
}

func (suite *WindowTestSuite) TestMinSamplesGate() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 5})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 1, 2, 3)

	_, err = store.Snapshot("w")
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))

	var insufficient *errors.InsufficientDataError
	suite.Require().ErrorAs(err, &insufficient)
	suite.Equal(5, insufficient.Required)
	suite.Equal(3, insufficient.Actual)
}

func (suite *WindowTestSuite) TestPrevSnapshotExcludesNewest() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 99, 101, 99, 101, 150)

	prev, err := store.PrevSnapshot("w")
	suite.Require().NoError(err)
	suite.InDelta(101, prev.Max, 1e-12, "the newest tick must not widen its own band")

	full, err := store.Snapshot("w")
	suite.Require().NoError(err)
	suite.InDelta(150, full.Max, 1e-12)
}

func (suite *WindowTestSuite) TestEndpointReturn() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 100, 99, 103)

	ret, err := store.EndpointReturn("w")
	suite.Require().NoError(err)
	suite.InDelta(0.03, ret, 1e-12)
}

func (suite *WindowTestSuite) TestPrevEndpointReturnExcludesNewest() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 100, 99, 103, 120)

	// The newest sample (120) is excluded; the return runs 100 -> 103.
	ret, err := store.PrevEndpointReturn("w")
	suite.Require().NoError(err)
	suite.InDelta(0.03, ret, 1e-12)
}

func (suite *WindowTestSuite) TestPrevEndpointReturnNeedsThreeSamples() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 100, 103)

	_, err = store.PrevEndpointReturn("w")

	var insufficient *errors.InsufficientDataError
	suite.Require().ErrorAs(err, &insufficient)
	suite.Equal(3, insufficient.Required)
	suite.Equal(2, insufficient.Actual)
}

func (suite *WindowTestSuite) TestEMA() {
	store, err := NewStore(Config{ID: "w", Capacity: 10, MinSamples: 2})
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 10, 20, 30)

	// alpha = 0.5: seed 10, then 15, then 22.5.
	ema, err := store.EMA("w", 3)
	suite.Require().NoError(err)
	suite.InDelta(22.5, ema, 1e-12)

	_, err = store.EMA("w", 5)
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *WindowTestSuite) TestUnknownWindowID() {
	store, err := NewStore(Config{ID: "w", Capacity: 10})
	suite.Require().NoError(err)

	_, err = store.Snapshot("nope")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowNotFound))
}

func (suite *WindowTestSuite) TestAllStatsSkipsColdWindows() {
	store, err := NewStore(
		Config{ID: "warm", Capacity: 10, MinSamples: 2},
		Config{ID: "cold", Capacity: 10, MinSamples: 9},
	)
	suite.Require().NoError(err)

	suite.feed(store, time.Second, 1, 2, 3)

	stats := store.AllStats()
	suite.Contains(stats, "warm")
	suite.NotContains(stats, "cold")
}

func TestWindowTestSuite(t *testing.T) {
	suite.Run(t, new(WindowTestSuite))
}
