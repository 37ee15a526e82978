// Package window maintains rolling windows of price ticks and derives
// statistics from them. Windows are bounded either by a time horizon or by a
// sample count; eviction is oldest-first and amortized O(1) per update.
package window

import (
	"math"
	"time"

	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// Config declares one rolling window. Exactly one of Horizon or Capacity must
// be set: Horizon > 0 makes a time-bounded window, Capacity > 0 a
// count-bounded one.
type Config struct {
	ID string
	// Horizon keeps samples no older than now - Horizon.
	Horizon time.Duration
	// Capacity keeps at most this many samples.
	Capacity int
	// MinSamples is the minimum sample count below which Snapshot reports
	// insufficient data instead of computing statistics.
	MinSamples int
}

type slidingWindow struct {
	cfg     Config
	samples []types.PriceTick
}

// Store holds multiple independently-evicted windows fed from one tick stream.
type Store struct {
	windows map[string]*slidingWindow
	order   []string
}

// NewStore creates a store with the given window configurations.
func NewStore(configs ...Config) (*Store, error) {
	s := &Store{
		windows: make(map[string]*slidingWindow, len(configs)),
		order:   make([]string, 0, len(configs)),
	}

	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "window id must not be empty")
		}

		if _, ok := s.windows[cfg.ID]; ok {
			return nil, errors.Newf(errors.ErrCodeDuplicateWindowID, "duplicate window id %s", cfg.ID)
		}

		if (cfg.Horizon > 0) == (cfg.Capacity > 0) {
			return nil, errors.Newf(errors.ErrCodeInvalidHorizon,
				"window %s must set exactly one of horizon or capacity", cfg.ID)
		}

		if cfg.MinSamples < 2 {
			cfg.MinSamples = 2
		}

		s.windows[cfg.ID] = &slidingWindow{cfg: cfg, samples: nil}
		s.order = append(s.order, cfg.ID)
	}

	return s, nil
}

// Update appends the tick to every window and evicts stale samples. Callers
// guarantee non-decreasing timestamps; the engine filters rewinds upstream.
func (s *Store) Update(tick types.PriceTick) {
	for _, id := range s.order {
		w := s.windows[id]
		w.samples = append(w.samples, tick)
		w.evict(tick.Time)
	}
}

func (w *slidingWindow) evict(now time.Time) {
	if w.cfg.Capacity > 0 {
		if n := len(w.samples); n > w.cfg.Capacity {
			w.samples = w.samples[n-w.cfg.Capacity:]
		}

		return
	}

	cutoff := now.Add(-w.cfg.Horizon)

	idx := 0
	for idx < len(w.samples) && w.samples[idx].Time.Before(cutoff) {
		idx++
	}

	if idx > 0 {
		w.samples = w.samples[idx:]
	}
}

// Size returns the current sample count of a window, or 0 if unknown.
func (s *Store) Size(id string) int {
	if w, ok := s.windows[id]; ok {
		return len(w.samples)
	}

	return 0
}

// Snapshot derives statistics from a window. Below the window's MinSamples it
// returns an InsufficientDataError; it never computes a standard deviation
// with an undefined denominator.
func (s *Store) Snapshot(id string) (types.WindowStats, error) {
	w, ok := s.windows[id]
	if !ok {
		return types.WindowStats{}, errors.Newf(errors.ErrCodeWindowNotFound, "no window registered with id %s", id)
	}

	return computeStats(w.samples, w.cfg.MinSamples, id)
}

// PrevSnapshot derives statistics excluding the newest sample. Breakout bands
// use it so the breaching tick never contributes to its own band.
func (s *Store) PrevSnapshot(id string) (types.WindowStats, error) {
	w, ok := s.windows[id]
	if !ok {
		return types.WindowStats{}, errors.Newf(errors.ErrCodeWindowNotFound, "no window registered with id %s", id)
	}

	n := len(w.samples)
	if n == 0 {
		return types.WindowStats{}, errors.NewInsufficientDataErrorf(w.cfg.MinSamples, 0, id,
			"window %s is empty", id)
	}

	return computeStats(w.samples[:n-1], w.cfg.MinSamples, id)
}

func computeStats(samples []types.PriceTick, minSamples int, id string) (types.WindowStats, error) {
	n := len(samples)
	if n < minSamples {
		return types.WindowStats{}, errors.NewInsufficientDataErrorf(minSamples, n, id,
			"window %s holds %d of %d required samples", id, n, minSamples)
	}

	sum := 0.0
	minPx := samples[0].Price
	maxPx := samples[0].Price

	for _, t := range samples {
		sum += t.Price

		if t.Price < minPx {
			minPx = t.Price
		}

		if t.Price > maxPx {
			maxPx = t.Price
		}
	}

	mean := sum / float64(n)

	// Sample standard deviation with Bessel's correction (divisor n-1).
	sq := 0.0
	for _, t := range samples {
		d := t.Price - mean
		sq += d * d
	}

	std := math.Sqrt(sq / float64(n-1))

	return types.WindowStats{
		Mean:    mean,
		Std:     std,
		Min:     minPx,
		Max:     maxPx,
		Range:   maxPx - minPx,
		Samples: n,
	}, nil
}

// EndpointReturn reports the fractional return between a window's oldest and
// newest samples. The higher-timeframe bias classifier is built on it.
func (s *Store) EndpointReturn(id string) (float64, error) {
	w, ok := s.windows[id]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeWindowNotFound, "no window registered with id %s", id)
	}

	if len(w.samples) < 2 {
		return 0, errors.NewInsufficientDataErrorf(2, len(w.samples), id,
			"window %s needs two samples for an endpoint return", id)
	}

	first := w.samples[0].Price
	last := w.samples[len(w.samples)-1].Price

	return last/first - 1.0, nil
}

// PrevEndpointReturn reports the endpoint return excluding the newest sample.
// The bias classifier uses it at arm time so a breaching tick cannot tilt the
// drift it is judged against.
func (s *Store) PrevEndpointReturn(id string) (float64, error) {
	w, ok := s.windows[id]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeWindowNotFound, "no window registered with id %s", id)
	}

	if len(w.samples) < 3 {
		return 0, errors.NewInsufficientDataErrorf(3, len(w.samples), id,
			"window %s needs two samples besides the newest for an endpoint return", id)
	}

	first := w.samples[0].Price
	last := w.samples[len(w.samples)-2].Price

	return last/first - 1.0, nil
}

// EMA computes an exponential moving average over the most recent period
// samples, seeded with the oldest of them and smoothed with
// alpha = 2/(period+1).
func (s *Store) EMA(id string, period int) (float64, error) {
	w, ok := s.windows[id]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeWindowNotFound, "no window registered with id %s", id)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "EMA period must be positive, got %d", period)
	}

	n := len(w.samples)
	if n < period {
		return 0, errors.NewInsufficientDataErrorf(period, n, id,
			"window %s holds %d of %d samples required for EMA", id, n, period)
	}

	recent := w.samples[n-period:]
	alpha := 2.0 / float64(period+1)

	ema := recent[0].Price
	for _, t := range recent[1:] {
		ema = t.Price*alpha + ema*(1-alpha)
	}

	return ema, nil
}

// Last returns the newest sample across the store, if any.
func (s *Store) Last(id string) (types.PriceTick, bool) {
	w, ok := s.windows[id]
	if !ok || len(w.samples) == 0 {
		return types.PriceTick{}, false
	}

	return w.samples[len(w.samples)-1], true
}

// AllStats returns a snapshot of every window that currently has enough
// samples, keyed by window id. Used to populate engine snapshots.
func (s *Store) AllStats() map[string]types.WindowStats {
	out := make(map[string]types.WindowStats, len(s.order))

	for _, id := range s.order {
		stats, err := s.Snapshot(id)
		if err != nil {
			continue
		}

		out[id] = stats
	}

	return out
}
