package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type BreachDirection string

type TrendBias string

const (
	BreachAbove BreachDirection = "above"
	BreachBelow BreachDirection = "below"
)

const (
	BiasUp      TrendBias = "up"
	BiasDown    TrendBias = "down"
	BiasNeutral TrendBias = "neutral"
)

// Opposes reports whether the bias points against a trade on the given side.
// A neutral bias opposes nothing.
func (b TrendBias) Opposes(side Side) bool {
	switch b {
	case BiasUp:
		return side == SideShort
	case BiasDown:
		return side == SideLong
	default:
		return false
	}
}

// Breach captures an armed band breach pending rejection. The band fields are
// computed from the window as it stood before the breaching tick, so the
// breach carries no look-ahead.
type Breach struct {
	Direction BreachDirection
	BandHigh  float64
	BandLow   float64
	BandMid   float64
	Range     float64
	Bias      TrendBias
	// Contracted is the volatility contraction filter verdict at arm time.
	Contracted bool
	// Ratio is short-range/long-range; None when the long window was not yet
	// eligible, never silently zero.
	Ratio   optional.Option[float64]
	ArmedAt time.Time
}

// Expired reports whether the breach outlived the rejection timeout.
func (b Breach) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(b.ArmedAt) > timeout
}

// FadeSide returns the side a rejection trade takes: opposite the breach.
func (b Breach) FadeSide() Side {
	if b.Direction == BreachAbove {
		return SideShort
	}

	return SideLong
}

// Rejected reports whether price has re-entered the band, confirming the
// breach as a failed breakout.
func (b Breach) Rejected(price float64) bool {
	if b.Direction == BreachAbove {
		return price <= b.BandHigh
	}

	return price >= b.BandLow
}
