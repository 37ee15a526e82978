package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/cost"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const (
	trendFastWindowID = "trend_fast"
	trendSlowWindowID = "trend_slow"
)

// Trend follows fast/slow EMA crosses, but only when the EMA spread is wide
// enough to pay for itself: the minimum gap is derived from round-trip
// execution cost, so low-conviction crosses in fee-sized noise never trade.
// Open positions carry a breakeven level and a tightening-only trailing stop;
// the opposite cross emits an exit that the lifecycle manager honors only
// past breakeven.
type Trend struct {
	cfg   config.TrendConfig
	costs cost.Model
}

// NewTrend creates an EMA-cross trend detector.
func NewTrend(cfg config.TrendConfig, costs cost.Model) *Trend {
	return &Trend{cfg: cfg, costs: costs}
}

func (t *Trend) Name() string {
	return string(config.StrategyTrend)
}

func (t *Trend) WindowConfigs() []window.Config {
	return []window.Config{
		{ID: trendFastWindowID, Capacity: t.cfg.FastWindow, MinSamples: 2},
		{ID: trendSlowWindowID, Capacity: t.cfg.SlowWindow, MinSamples: 2},
	}
}

func (t *Trend) Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error) {
	fast, err := windows.EMA(trendFastWindowID, t.cfg.FastWindow)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	slow, err := windows.EMA(trendSlowWindowID, t.cfg.SlowWindow)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	eval := Evaluation{}

	if stats, err := windows.Snapshot(trendFastWindowID); err == nil && stats.Std > 0 {
		eval.Exit = ExitContext{ShortStd: optional.Some(stats.Std)}
	}

	// Minimum tradeable EMA spread, scaled from the cost of a round trip.
	feeGap := tick.Price * t.costs.TakerFraction() * t.cfg.FeeGapMult
	gap := math.Abs(fast - slow)

	var side types.Side
	switch {
	case fast > slow:
		side = types.SideLong
		eval.Signals = append(eval.Signals, types.Signal{
			Time:     tick.Time,
			Type:     types.SignalTypeExitShort,
			Strategy: t.Name(),
			Reason:   "golden cross",
		})
	case fast < slow:
		side = types.SideShort
		eval.Signals = append(eval.Signals, types.Signal{
			Time:     tick.Time,
			Type:     types.SignalTypeExitLong,
			Strategy: t.Name(),
			Reason:   "death cross",
		})
	default:
		return eval, nil
	}

	if gap <= feeGap*t.cfg.GapFrac {
		return eval, nil
	}

	stopDistance, hasStd := 0.0, false
	if std, e := eval.Exit.ShortStd.Take(); e == nil {
		stopDistance, hasStd = std*t.cfg.StopMult, true
	}

	if !hasStd {
		// No volatility estimate yet means no stop, so no trade.
		return eval, nil
	}

	plan := types.OrderPlan{
		Side:         side,
		StopDistance: optional.Some(stopDistance),
		Breakeven:    optional.Some(t.costs.Breakeven(tick.Price, side)),
		TrailStdMult: optional.Some(t.cfg.TrailMult),
	}

	eval.Signals = append(eval.Signals, types.Signal{
		Time:     tick.Time,
		Type:     entrySignalType(side),
		Strategy: t.Name(),
		Reason:   "ema cross beyond fee gap",
		Plan:     optional.Some(plan),
	})

	return eval, nil
}
