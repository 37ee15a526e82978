package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// EngineSnapshot is an immutable copy of engine state taken at the end of a
// completed tick. Reporters read snapshots; they never touch live state.
type EngineSnapshot struct {
	Time          time.Time
	Price         float64
	Windows       map[string]WindowStats
	Breach        optional.Option[Breach]
	Positions     []Position
	PendingOrders []PendingOrder
	Cash          float64
	Equity        float64
	RealizedPnL   float64
	// DroppedTicks counts feed ticks rejected for non-increasing timestamps.
	DroppedTicks int64
	// Ticks counts accepted ticks processed since start.
	Ticks int64
}

// SessionStats accumulates per-run trade statistics.
type SessionStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	RealizedPnL   float64
	MaxProfit     float64
	MaxLoss       float64
	MaxDrawdown   float64
	PeakEquity    float64
	SessionStart  time.Time
}
