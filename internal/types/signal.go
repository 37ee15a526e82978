package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type SignalType string

const (
	// SignalTypeEnterLong tells the lifecycle manager to open a long position
	SignalTypeEnterLong SignalType = "enter_long"
	// SignalTypeEnterShort tells the lifecycle manager to open a short position
	SignalTypeEnterShort SignalType = "enter_short"
	// SignalTypeExitLong tells the lifecycle manager to close open long positions
	SignalTypeExitLong SignalType = "exit_long"
	// SignalTypeExitShort tells the lifecycle manager to close open short positions
	SignalTypeExitShort SignalType = "exit_short"
	// SignalTypeNoAction is emitted when the detector sees nothing actionable
	SignalTypeNoAction SignalType = "no_action"
)

// OrderPlan carries the execution parameters for an entry signal.
type OrderPlan struct {
	Side Side
	// Limit, when set, turns the entry into a resting limit order at this
	// trigger price instead of an immediate market fill.
	Limit optional.Option[float64]
	// StopDistance is the protective stop's distance from the entry fill
	// price. The lifecycle manager anchors it once the fill price is known.
	StopDistance optional.Option[float64]
	// Target is the take-profit price for the resulting position.
	Target optional.Option[float64]
	// Breakeven is the fee-recovery level for the resulting position.
	Breakeven optional.Option[float64]
	// TrailStdMult enables a trailing stop on the resulting position.
	TrailStdMult optional.Option[float64]
	// EntryZ records the z-score at signal time for z-adaptive stops.
	EntryZ optional.Option[float64]
	// NotionalFrac, when set, sizes the trade as this fraction of current
	// cash instead of the configured per-trade notional.
	NotionalFrac optional.Option[float64]
}

// Signal is the output of a strategy evaluation against one tick.
type Signal struct {
	// Time is the time of the tick that produced the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Strategy is the name of the strategy that emitted the signal
	Strategy string
	// Reason is a human-readable explanation used for logging
	Reason string
	// Plan holds execution parameters; Some only for entry signals
	Plan optional.Option[OrderPlan]
}

// IsEntry reports whether the signal opens a new position or order.
func (s Signal) IsEntry() bool {
	return s.Type == SignalTypeEnterLong || s.Type == SignalTypeEnterShort
}

// IsExit reports whether the signal closes existing positions.
func (s Signal) IsExit() bool {
	return s.Type == SignalTypeExitLong || s.Type == SignalTypeExitShort
}

// EntrySide maps an entry signal type to the position side it opens.
func (s Signal) EntrySide() Side {
	if s.Type == SignalTypeEnterLong {
		return SideLong
	}

	return SideShort
}

// ExitSide maps an exit signal type to the position side it closes.
func (s Signal) ExitSide() Side {
	if s.Type == SignalTypeExitLong {
		return SideLong
	}

	return SideShort
}
