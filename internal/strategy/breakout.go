package strategy

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const (
	breakoutBandWindowID = "breakout_band"
	breakoutLongWindowID = "breakout_long"
	breakoutBiasWindowID = "breakout_bias"
)

// Breakout runs a two-state breach-and-rejection machine. Idle, it watches
// for price to breach the previous band extremes; armed, it waits for price
// to come back inside the band within the rejection timeout and fades the
// failed breakout toward the band midpoint. Band statistics always exclude
// the current tick so a breach is judged against the band as it stood before
// the breaching print.
type Breakout struct {
	cfg   config.BreakoutConfig
	gate  ProfitGate
	armed optional.Option[types.Breach]
}

// NewBreakout creates a breach-and-rejection fade detector.
func NewBreakout(cfg config.BreakoutConfig, gate ProfitGate) *Breakout {
	return &Breakout{cfg: cfg, gate: gate}
}

func (b *Breakout) Name() string {
	return string(config.StrategyBreakout)
}

func (b *Breakout) WindowConfigs() []window.Config {
	return []window.Config{
		{ID: breakoutBandWindowID, Horizon: b.cfg.BandHorizon.Std(), MinSamples: b.cfg.MinBandSamples},
		{ID: breakoutLongWindowID, Horizon: b.cfg.LongHorizon.Std(), MinSamples: b.cfg.MinLongSamples},
		{ID: breakoutBiasWindowID, Horizon: b.cfg.BiasHorizon.Std(), MinSamples: 2},
	}
}

// Breach exposes the armed breach for engine snapshots.
func (b *Breakout) Breach() optional.Option[types.Breach] {
	return b.armed
}

func (b *Breakout) Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error) {
	if breach, err := b.armed.Take(); err == nil {
		return b.evaluateArmed(tick, breach)
	}

	band, err := windows.PrevSnapshot(breakoutBandWindowID)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	var direction types.BreachDirection
	switch {
	case tick.Price > band.Max:
		direction = types.BreachAbove
	case tick.Price < band.Min:
		direction = types.BreachBelow
	default:
		return noAction(), nil
	}

	contracted, ratio := b.contraction(band, windows)

	b.armed = optional.Some(types.Breach{
		Direction:  direction,
		BandHigh:   band.Max,
		BandLow:    band.Min,
		BandMid:    (band.Max + band.Min) / 2.0,
		Range:      math.Max(band.Range, 1e-9),
		Bias:       b.bias(windows),
		Contracted: contracted,
		Ratio:      ratio,
		ArmedAt:    tick.Time,
	})

	return noAction(), nil
}

func (b *Breakout) evaluateArmed(tick types.PriceTick, breach types.Breach) (Evaluation, error) {
	if breach.Expired(tick.Time, b.cfg.RejectionTimeout.Std()) {
		b.armed = optional.None[types.Breach]()

		return noAction(), nil
	}

	if !breach.Rejected(tick.Price) {
		// Still outside the band; hold the armed state.
		return noAction(), nil
	}

	// The breach is consumed by its rejection whether or not the entry
	// filters let the trade through.
	b.armed = optional.None[types.Breach]()

	side := breach.FadeSide()

	if b.cfg.RequireContraction && !breach.Contracted {
		return noAction(), nil
	}

	if b.cfg.RequireBias && breach.Bias.Opposes(side) {
		return noAction(), nil
	}

	if !b.gate.Allows(tick.Price, breach.BandMid) {
		return noAction(), nil
	}

	plan := types.OrderPlan{
		Side:         side,
		StopDistance: optional.Some(b.cfg.StopKRange * breach.Range),
		Target:       optional.Some(breach.BandMid),
	}

	return Evaluation{
		Signals: []types.Signal{{
			Time:     tick.Time,
			Type:     entrySignalType(side),
			Strategy: b.Name(),
			Reason:   fmt.Sprintf("rejected breach %s band", breach.Direction),
			Plan:     optional.Some(plan),
		}},
	}, nil
}

// contraction compares the short band's range with the long window's range.
// It reports false with no ratio until the long window is eligible; a filter
// that has not seen enough history must not pass by accident.
func (b *Breakout) contraction(band types.WindowStats, windows *window.Store) (bool, optional.Option[float64]) {
	long, err := windows.PrevSnapshot(breakoutLongWindowID)
	if err != nil || long.Range <= 0 {
		return false, optional.None[float64]()
	}

	ratio := band.Range / long.Range

	return ratio <= b.cfg.ContractionMax, optional.Some(ratio)
}

// bias classifies the higher-timeframe drift from the bias window's endpoint
// return, excluding the breaching tick itself. Moves smaller than the
// configured basis-point floor are neutral.
func (b *Breakout) bias(windows *window.Store) types.TrendBias {
	ret, err := windows.PrevEndpointReturn(breakoutBiasWindowID)
	if err != nil {
		return types.BiasNeutral
	}

	if math.Abs(ret)*10000.0 < b.cfg.BiasMinMoveBP {
		return types.BiasNeutral
	}

	if ret > 0 {
		return types.BiasUp
	}

	return types.BiasDown
}
