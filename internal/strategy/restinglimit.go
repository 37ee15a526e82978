package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const restingWindowID = "resting"

// RestingLimit quotes both sides of the rolling distribution with resting
// limit orders: a buy at the long entry z level and a sell at the short
// entry z level, each carrying a take-profit near the mean and a sigma-sized
// stop. It emits entries every tick; the lifecycle manager's capacity limits
// bound how many orders actually rest.
type RestingLimit struct {
	cfg  config.RestingLimitConfig
	gate ProfitGate
}

// NewRestingLimit creates a resting limit order detector.
func NewRestingLimit(cfg config.RestingLimitConfig, gate ProfitGate) *RestingLimit {
	return &RestingLimit{cfg: cfg, gate: gate}
}

func (r *RestingLimit) Name() string {
	return string(config.StrategyRestingLimit)
}

func (r *RestingLimit) WindowConfigs() []window.Config {
	return []window.Config{
		{ID: restingWindowID, Capacity: r.cfg.Window, MinSamples: r.cfg.MinSamples},
	}
}

func (r *RestingLimit) Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error) {
	stats, err := windows.Snapshot(restingWindowID)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	if stats.Std == 0 {
		return noAction(), nil
	}

	takeProfit := stats.PriceAtZ(r.cfg.TakeProfitZ)

	eval := Evaluation{}

	// Long quote below the market.
	if trigger := stats.PriceAtZ(r.cfg.LongEntryZ); trigger > 0 && trigger < tick.Price {
		if sig, ok := r.quote(tick, types.SideLong, trigger, takeProfit, stats.Std); ok {
			eval.Signals = append(eval.Signals, sig)
		}
	}

	// Short quote above the market.
	if trigger := stats.PriceAtZ(r.cfg.ShortEntryZ); trigger > tick.Price {
		if sig, ok := r.quote(tick, types.SideShort, trigger, takeProfit, stats.Std); ok {
			eval.Signals = append(eval.Signals, sig)
		}
	}

	return eval, nil
}

func (r *RestingLimit) quote(tick types.PriceTick, side types.Side, trigger, takeProfit, std float64) (types.Signal, bool) {
	if !r.gate.Allows(trigger, takeProfit) {
		return types.Signal{}, false
	}

	plan := types.OrderPlan{
		Side:         side,
		Limit:        optional.Some(trigger),
		StopDistance: optional.Some(r.cfg.StopLossSigma * std),
		Target:       optional.Some(takeProfit),
		NotionalFrac: optional.Some(r.cfg.NotionalFrac),
	}

	return types.Signal{
		Time:     tick.Time,
		Type:     entrySignalType(side),
		Strategy: r.Name(),
		Reason:   "resting quote at entry z level",
		Plan:     optional.Some(plan),
	}, true
}
