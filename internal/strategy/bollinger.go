package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const bollingerWindowID = "bollinger"

// Bollinger fades excursions beyond mean +/- k*std back toward the mean.
// Entries are stateless: every tick outside the band that clears the profit
// gate produces a signal, and capacity limits downstream decide how many
// stick.
type Bollinger struct {
	cfg  config.BollingerConfig
	gate ProfitGate
}

// NewBollinger creates a band mean reversion detector.
func NewBollinger(cfg config.BollingerConfig, gate ProfitGate) *Bollinger {
	return &Bollinger{cfg: cfg, gate: gate}
}

func (b *Bollinger) Name() string {
	return string(config.StrategyBollinger)
}

func (b *Bollinger) WindowConfigs() []window.Config {
	return []window.Config{
		{ID: bollingerWindowID, Capacity: b.cfg.Window, MinSamples: b.cfg.MinSamples},
	}
}

func (b *Bollinger) Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error) {
	stats, err := windows.Snapshot(bollingerWindowID)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	// A flat window has no band to fade.
	if stats.Std == 0 {
		return noAction(), nil
	}

	upper := stats.Mean + b.cfg.StdDevMult*stats.Std
	lower := stats.Mean - b.cfg.StdDevMult*stats.Std

	var side types.Side
	switch {
	case tick.Price < lower:
		side = types.SideLong
	case tick.Price > upper:
		side = types.SideShort
	default:
		return noAction(), nil
	}

	if !b.gate.Allows(tick.Price, stats.Mean) {
		return noAction(), nil
	}

	stopDistance := math.Max(b.cfg.StopKRange*stats.Std, b.cfg.StopFloorFrac*tick.Price)

	plan := types.OrderPlan{
		Side:         side,
		StopDistance: optional.Some(stopDistance),
		Target:       optional.Some(stats.Mean),
	}

	return Evaluation{
		Signals: []types.Signal{{
			Time:     tick.Time,
			Type:     entrySignalType(side),
			Strategy: b.Name(),
			Reason:   "price outside bollinger band",
			Plan:     optional.Some(plan),
		}},
	}, nil
}
