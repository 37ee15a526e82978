package paper

import (
	"time"

	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

// SessionTracker accumulates trade and equity statistics over a run.
// It is owned by the engine and mutated only on the tick path.
type SessionTracker struct {
	stats types.SessionStats
}

// NewSessionTracker starts a tracker at the given time and equity base.
func NewSessionTracker(start time.Time, initialEquity float64) *SessionTracker {
	return &SessionTracker{
		stats: types.SessionStats{
			SessionStart: start,
			PeakEquity:   initialEquity,
		},
	}
}

// RecordClose registers one completed round trip.
func (t *SessionTracker) RecordClose(pnl float64) {
	t.stats.TotalTrades++
	t.stats.RealizedPnL += pnl

	if pnl >= 0 {
		t.stats.WinningTrades++
	} else {
		t.stats.LosingTrades++
	}

	if pnl > t.stats.MaxProfit {
		t.stats.MaxProfit = pnl
	}

	if pnl < t.stats.MaxLoss {
		t.stats.MaxLoss = pnl
	}
}

// RecordEquity updates the peak and the maximum drawdown from it.
func (t *SessionTracker) RecordEquity(equity float64) {
	if equity > t.stats.PeakEquity {
		t.stats.PeakEquity = equity
	}

	if dd := t.stats.PeakEquity - equity; dd > t.stats.MaxDrawdown {
		t.stats.MaxDrawdown = dd
	}
}

// Stats returns a copy of the accumulated statistics.
func (t *SessionTracker) Stats() types.SessionStats {
	return t.stats
}
