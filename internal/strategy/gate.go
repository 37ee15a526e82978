package strategy

import "math"

// ProfitGate suppresses entries whose expected edge cannot clear round-trip
// execution cost by a configured multiple. Mean reversion strategies apply it
// with the reversion target; a gate with MinRatio zero admits everything.
type ProfitGate struct {
	// Notional is the dollar size the trade would take.
	Notional float64
	// RoundTrip is the fractional cost of entering and exiting.
	RoundTrip float64
	// MinRatio is the required expected-profit / cost multiple.
	MinRatio float64
}

// Allows reports whether a trade entered at price aiming for target carries
// enough expected profit. The edge is the full distance to the target valued
// at the trade's quantity.
func (g ProfitGate) Allows(price, target float64) bool {
	if g.MinRatio <= 0 {
		return true
	}

	if price <= 0 {
		return false
	}

	quantity := g.Notional / price
	expected := math.Abs(target-price) * quantity
	fees := g.Notional * g.RoundTrip

	return expected > fees*g.MinRatio
}
