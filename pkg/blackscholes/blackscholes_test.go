package blackscholes

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BlackScholesTestSuite struct {
	suite.Suite
}

func (suite *BlackScholesTestSuite) baseInputs() Inputs {
	return Inputs{
		Spot:     50_000,
		Strike:   50_000,
		RiskFree: 0.01,
		Sigma:    0.60,
		Funding:  0.0,
		Horizon:  1.0 / 365.0,
	}
}

func (suite *BlackScholesTestSuite) TestPhiKnownValues() {
	suite.InDelta(0.5, Phi(0), 1e-12)
	suite.InDelta(0.8413, Phi(1), 1e-4)
	suite.InDelta(0.1587, Phi(-1), 1e-4)
	suite.InDelta(0.9772, Phi(2), 1e-4)
}

func (suite *BlackScholesTestSuite) TestAtTheMoneyApproximation() {
	// ATM short-dated call is approximately 0.4 * S * sigma * sqrt(T).
	in := suite.baseInputs()

	price, err := CallPrice(in)
	suite.Require().NoError(err)

	approx := 0.4 * in.Spot * in.Sigma * 0.052342 // sqrt(1/365)
	suite.InDelta(approx, price, approx*0.02)
}

func (suite *BlackScholesTestSuite) TestDeepInTheMoneyApproachesIntrinsic() {
	in := suite.baseInputs()
	in.Spot = 100_000

	price, err := CallPrice(in)
	suite.Require().NoError(err)

	intrinsic := in.Spot - in.Strike
	suite.Greater(price, intrinsic*0.999)
	suite.Less(price, in.Spot)
}

func (suite *BlackScholesTestSuite) TestMonotoneInVolatility() {
	in := suite.baseInputs()

	prev := 0.0
	for _, sigma := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		in.Sigma = sigma

		price, err := CallPrice(in)
		suite.Require().NoError(err)
		suite.Greater(price, prev)

		prev = price
	}
}

func (suite *BlackScholesTestSuite) TestPositiveFundingLowersCall() {
	in := suite.baseInputs()

	base, err := CallPrice(in)
	suite.Require().NoError(err)

	in.Funding = 0.10

	funded, err := CallPrice(in)
	suite.Require().NoError(err)
	suite.Less(funded, base)
}

func (suite *BlackScholesTestSuite) TestRejectsInvalidInputs() {
	in := suite.baseInputs()
	in.Spot = 0
	_, err := CallPrice(in)
	suite.Error(err)

	in = suite.baseInputs()
	in.Sigma = 0
	_, err = CallPrice(in)
	suite.Error(err)

	in = suite.baseInputs()
	in.Horizon = 0
	_, err = CallPrice(in)
	suite.Error(err)
}

func (suite *BlackScholesTestSuite) TestAnnualizedVolatility() {
	returns := []float64{0.01, -0.01, 0.01, -0.01, 0.01, -0.01}

	vol, err := AnnualizedVolatility(returns, 365)
	suite.Require().NoError(err)

	// Sample std of the alternating series is about 0.011, annualized by
	// sqrt(365).
	suite.InDelta(0.010954*19.105, vol, 1e-3)

	_, err = AnnualizedVolatility([]float64{0.01}, 365)
	suite.Error(err)
}

func TestBlackScholesTestSuite(t *testing.T) {
	suite.Run(t, new(BlackScholesTestSuite))
}
