// Package blackscholes prices a perpetual-style call on a crypto asset with
// the Black-Scholes formula, treating the funding rate as a continuous carry
// and a short finite horizon as the perpetual approximation.
package blackscholes

import (
	"math"

	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// Inputs are the pricing parameters.
type Inputs struct {
	// Spot is the current underlying price.
	Spot float64
	// Strike is the strike price.
	Strike float64
	// RiskFree is the annualized risk-free rate.
	RiskFree float64
	// Sigma is the annualized volatility.
	Sigma float64
	// Funding is the annualized funding rate, the carry of a perpetual. It
	// may be negative.
	Funding float64
	// Horizon is the approximation horizon in years.
	Horizon float64
}

// Phi is the standard normal CDF.
func Phi(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// CallPrice returns the call value under the given inputs.
func CallPrice(in Inputs) (float64, error) {
	if in.Spot <= 0 || in.Strike <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice,
			"spot (%f) and strike (%f) must be positive", in.Spot, in.Strike)
	}

	if in.Sigma <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "sigma must be positive, got %f", in.Sigma)
	}

	if in.Horizon <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidHorizon, "horizon must be positive, got %f", in.Horizon)
	}

	sqrtT := math.Sqrt(in.Horizon)

	d1 := (math.Log(in.Spot/in.Strike) + (in.RiskFree-in.Funding+0.5*in.Sigma*in.Sigma)*in.Horizon) / (in.Sigma * sqrtT)
	d2 := d1 - in.Sigma*sqrtT

	call := in.Spot*math.Exp(-in.Funding*in.Horizon)*Phi(d1) -
		in.Strike*math.Exp(-in.RiskFree*in.Horizon)*Phi(d2)

	return call, nil
}

// AnnualizedVolatility converts a sample of per-period returns into an
// annualized volatility. periodsPerYear is 365 for daily returns.
func AnnualizedVolatility(returns []float64, periodsPerYear float64) (float64, error) {
	n := len(returns)
	if n < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, n, "returns",
			"volatility needs at least two returns, got %d", n)
	}

	if periodsPerYear <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"periods per year must be positive, got %f", periodsPerYear)
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(n)

	sq := 0.0
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}

	std := math.Sqrt(sq / float64(n-1))

	return std * math.Sqrt(periodsPerYear), nil
}
