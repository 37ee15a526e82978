// Package reporter periodically logs engine status. It reads published
// snapshots only, so it can run on its own goroutine without ever touching
// the tick path.
package reporter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

// SnapshotFunc returns the latest published engine snapshot.
type SnapshotFunc func() types.EngineSnapshot

// Reporter logs a status line at a fixed interval.
type Reporter struct {
	log      *logger.Logger
	interval time.Duration
	snapshot SnapshotFunc
}

// New creates a reporter. A non-positive interval disables it.
func New(log *logger.Logger, interval time.Duration, snapshot SnapshotFunc) *Reporter {
	return &Reporter{
		log:      log,
		interval: interval,
		snapshot: snapshot,
	}
}

// Run logs until the context is cancelled. Blocking; run it on its own
// goroutine.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	snap := r.snapshot()
	if snap.Time.IsZero() {
		r.log.Info("waiting for first tick")

		return
	}

	fields := []zap.Field{
		zap.Time("tick_time", snap.Time),
		zap.Float64("price", snap.Price),
		zap.Float64("cash", snap.Cash),
		zap.Float64("equity", snap.Equity),
		zap.Float64("realized_pnl", snap.RealizedPnL),
		zap.Int("positions", len(snap.Positions)),
		zap.Int("pending_orders", len(snap.PendingOrders)),
		zap.Int64("ticks", snap.Ticks),
		zap.Int64("dropped_ticks", snap.DroppedTicks),
	}

	if breach, err := snap.Breach.Take(); err == nil {
		fields = append(fields,
			zap.String("breach", string(breach.Direction)),
			zap.Float64("band_high", breach.BandHigh),
			zap.Float64("band_low", breach.BandLow),
		)
	}

	r.log.Info("status", fields...)
}
