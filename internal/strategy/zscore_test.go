package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

type ZScoreTestSuite struct {
	suite.Suite
}

func (suite *ZScoreTestSuite) newDetector(entryZ float64) *ZScore {
	return suite.newGatedDetector(entryZ, openGate())
}

func (suite *ZScoreTestSuite) newGatedDetector(entryZ float64, gate ProfitGate) *ZScore {
	return NewZScore(config.ZScoreConfig{
		Window:          20,
		MinSamples:      10,
		EntryZ:          entryZ,
		ExitZ:           0.2,
		StopWorsenSigma: 2.0,
	}, gate)
}

// alternating series around 100 with a final spike up
func (suite *ZScoreTestSuite) spikeSeries() []float64 {
	prices := make([]float64, 0, 20)
	for i := 0; i < 19; i++ {
		if i%2 == 0 {
			prices = append(prices, 99)
		} else {
			prices = append(prices, 101)
		}
	}

	return append(prices, 105)
}

// measuredZ replays the series and reports the z of the final tick the same
// way the detector sees it.
func (suite *ZScoreTestSuite) measuredZ(d *ZScore, prices []float64) float64 {
	store := newDetectorStore(suite.T(), d)
	feedSeries(suite.T(), d, store, prices)

	stats, err := store.Snapshot(zscoreWindowID)
	suite.Require().NoError(err)

	z, ok := stats.ZScore(prices[len(prices)-1])
	suite.Require().True(ok)

	return z
}

func (suite *ZScoreTestSuite) TestEntersShortBeyondThreshold() {
	reference := suite.newDetector(2.5)
	z := suite.measuredZ(reference, suite.spikeSeries())
	suite.Require().Greater(z, 2.5, "series must spike beyond the entry threshold")

	detector := suite.newDetector(2.5)
	store := newDetectorStore(suite.T(), detector)
	eval := feedSeries(suite.T(), detector, store, suite.spikeSeries())

	entries := entriesOf(eval)
	suite.Require().Len(entries, 1)
	suite.Equal(types.SignalTypeEnterShort, entries[0].Type)

	plan, err := entries[0].Plan.Take()
	suite.Require().NoError(err)
	suite.Equal(types.SideShort, plan.Side)

	entryZ, err := plan.EntryZ.Take()
	suite.Require().NoError(err)
	suite.InDelta(z, entryZ, 1e-12)
}

func (suite *ZScoreTestSuite) TestNoEntryJustInsideThreshold() {
	reference := suite.newDetector(2.5)
	z := suite.measuredZ(reference, suite.spikeSeries())

	// Same series, threshold nudged above the measured z: nothing may fire.
	detector := suite.newDetector(z + 0.1)
	store := newDetectorStore(suite.T(), detector)
	eval := feedSeries(suite.T(), detector, store, suite.spikeSeries())

	suite.Empty(entriesOf(eval))
}

func (suite *ZScoreTestSuite) TestProfitGateBlocksThinEdge() {
	reference := suite.newDetector(2.5)
	z := suite.measuredZ(reference, suite.spikeSeries())
	suite.Require().Greater(z, 2.5, "series must spike beyond the entry threshold")

	// The spike sits under 5% from the mean while the gate demands 30% of
	// notional (20% round trip at ratio 1.5). Extreme z alone is not enough.
	gate := ProfitGate{Notional: 1000, RoundTrip: 0.20, MinRatio: 1.5}
	detector := suite.newGatedDetector(2.5, gate)
	store := newDetectorStore(suite.T(), detector)
	eval := feedSeries(suite.T(), detector, store, suite.spikeSeries())

	suite.Empty(entriesOf(eval))
	suite.True(eval.Exit.Z.IsSome(), "exit context still published for held positions")
}

func (suite *ZScoreTestSuite) TestZeroVarianceProducesNothing() {
	detector := suite.newDetector(2.5)
	store := newDetectorStore(suite.T(), detector)

	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 100
	}

	eval := feedSeries(suite.T(), detector, store, prices)
	suite.Empty(eval.Signals)
	suite.True(eval.Exit.Z.IsNone())
}

func (suite *ZScoreTestSuite) TestInsufficientDataProducesNothing() {
	detector := suite.newDetector(2.5)
	store := newDetectorStore(suite.T(), detector)

	eval := feedSeries(suite.T(), detector, store, []float64{99, 101, 99, 101, 99})
	suite.Empty(eval.Signals)
}

func (suite *ZScoreTestSuite) TestExitSignalOnReversion() {
	detector := suite.newDetector(2.5)
	store := newDetectorStore(suite.T(), detector)

	// Near the mean both sides have reverted, so both exit signals fire and
	// no entry does.
	prices := append(suite.spikeSeries()[:19], 100)
	eval := feedSeries(suite.T(), detector, store, prices)

	types_ := make(map[types.SignalType]bool)
	for _, s := range eval.Signals {
		types_[s.Type] = true
	}

	suite.True(types_[types.SignalTypeExitLong])
	suite.True(types_[types.SignalTypeExitShort])
	suite.Empty(entriesOf(eval))
}

func (suite *ZScoreTestSuite) TestPublishesExitContext() {
	detector := suite.newDetector(2.5)
	store := newDetectorStore(suite.T(), detector)

	eval := feedSeries(suite.T(), detector, store, suite.spikeSeries())

	suite.True(eval.Exit.Z.IsSome())

	worsen, err := eval.Exit.ZStopWorsen.Take()
	suite.Require().NoError(err)
	suite.Equal(2.0, worsen)
}

func TestZScoreTestSuite(t *testing.T) {
	suite.Run(t, new(ZScoreTestSuite))
}
