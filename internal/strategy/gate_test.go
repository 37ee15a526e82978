package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

type ProfitGateTestSuite struct {
	suite.Suite
}

func (suite *ProfitGateTestSuite) TestZeroRatioAdmitsEverything() {
	gate := ProfitGate{Notional: 1000, RoundTrip: 0.5, MinRatio: 0}

	suite.True(gate.Allows(100, 100.0001))
	suite.True(gate.Allows(100, 100))
}

func (suite *ProfitGateTestSuite) TestBlocksEdgeInsideCostMultiple() {
	// Round trip 1.2%, ratio 1.5: the edge must exceed 1.8% of price.
	gate := ProfitGate{Notional: 1000, RoundTrip: 0.012, MinRatio: 1.5}

	suite.False(gate.Allows(100, 101.0))
	suite.False(gate.Allows(100, 101.8))
	suite.True(gate.Allows(100, 102.0))
}

func (suite *ProfitGateTestSuite) TestSymmetricForShorts() {
	gate := ProfitGate{Notional: 1000, RoundTrip: 0.012, MinRatio: 1.5}

	suite.False(gate.Allows(100, 98.5))
	suite.True(gate.Allows(100, 98.0))
}

// Raising the cost never admits a trade that was blocked at a lower cost.
func (suite *ProfitGateTestSuite) TestMonotoneInRoundTripCost() {
	targets := []float64{100.5, 101, 101.5, 102, 103, 105}
	costs := []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05}

	for _, target := range targets {
		allowedAtCheaper := true
		for _, rt := range costs {
			gate := ProfitGate{Notional: 1000, RoundTrip: rt, MinRatio: 1.5}
			allowed := gate.Allows(100, target)

			if allowed {
				suite.True(allowedAtCheaper,
					"target %.2f admitted at cost %.3f but blocked at a cheaper cost", target, rt)
			}

			allowedAtCheaper = allowed
		}
	}
}

// Replaying one fixed tick sequence at increasing gate multipliers must never
// increase the number of entries taken.
func (suite *ProfitGateTestSuite) TestEntryCountNonIncreasingInMinRatio() {
	prices := make([]float64, 0, 64)
	alternate := func(n int) {
		for i := 0; i < n; i++ {
			if len(prices)%2 == 0 {
				prices = append(prices, 99)
			} else {
				prices = append(prices, 101)
			}
		}
	}

	// Spikes of growing size so successive cost multiples peel entries off.
	alternate(19)
	prices = append(prices, 103)
	alternate(10)
	prices = append(prices, 105)
	alternate(10)
	prices = append(prices, 108)

	replay := func(ratio float64) int {
		detector := NewZScore(config.ZScoreConfig{
			Window:          20,
			MinSamples:      10,
			EntryZ:          1.5,
			ExitZ:           0.2,
			StopWorsenSigma: 2.0,
		}, ProfitGate{Notional: 1000, RoundTrip: 0.01, MinRatio: ratio})
		store := newDetectorStore(suite.T(), detector)

		count := 0
		for i, px := range prices {
			tick := types.PriceTick{Time: testStart.Add(time.Duration(i) * time.Second), Price: px}
			store.Update(tick)

			eval, err := detector.Evaluate(tick, store)
			suite.Require().NoError(err)

			count += len(entriesOf(eval))
		}

		return count
	}

	ratios := []float64{0, 2, 4, 6, 10}
	counts := make([]int, len(ratios))
	for i, ratio := range ratios {
		counts[i] = replay(ratio)
	}

	suite.Positive(counts[0], "the ungated replay must take entries")
	suite.Zero(counts[len(counts)-1], "no spike clears a 10x cost multiple")

	for i := 1; i < len(counts); i++ {
		suite.LessOrEqual(counts[i], counts[i-1],
			"ratio %.0f took more entries than ratio %.0f", ratios[i], ratios[i-1])
	}
}

func (suite *ProfitGateTestSuite) TestRejectsNonPositivePrice() {
	gate := ProfitGate{Notional: 1000, RoundTrip: 0.001, MinRatio: 1}

	suite.False(gate.Allows(0, 100))
	suite.False(gate.Allows(-1, 100))
}

func TestProfitGateTestSuite(t *testing.T) {
	suite.Run(t, new(ProfitGateTestSuite))
}
