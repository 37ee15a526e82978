package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const zscoreWindowID = "zscore"

// ZScore trades deviations of the normalized price from its rolling mean.
// Entries fire beyond +/- entry_z; exits are signal-driven when z reverts
// inside +/- exit_z. The protective stop is a z-stop rather than a price
// level: the lifecycle manager closes a position whose z has worsened by
// stop_worsen_sigma past its entry z, using the exit context published here.
// Entries are gated on the expected edge back to the rolling mean.
type ZScore struct {
	cfg  config.ZScoreConfig
	gate ProfitGate
}

// NewZScore creates a z-score mean reversion detector.
func NewZScore(cfg config.ZScoreConfig, gate ProfitGate) *ZScore {
	return &ZScore{cfg: cfg, gate: gate}
}

func (z *ZScore) Name() string {
	return string(config.StrategyZScore)
}

func (z *ZScore) WindowConfigs() []window.Config {
	return []window.Config{
		{ID: zscoreWindowID, Capacity: z.cfg.Window, MinSamples: z.cfg.MinSamples},
	}
}

func (z *ZScore) Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error) {
	stats, err := windows.Snapshot(zscoreWindowID)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return noAction(), nil
		}

		return noAction(), err
	}

	score, ok := stats.ZScore(tick.Price)
	if !ok {
		// Zero variance: no z-score exists, nothing to trade.
		return noAction(), nil
	}

	eval := Evaluation{
		Exit: ExitContext{
			Z:           optional.Some(score),
			ZStopWorsen: optional.Some(z.cfg.StopWorsenSigma),
		},
	}

	// Exits first: a z that has reverted inside the exit threshold releases
	// positions on the corresponding side.
	if score > -z.cfg.ExitZ {
		eval.Signals = append(eval.Signals, types.Signal{
			Time:     tick.Time,
			Type:     types.SignalTypeExitLong,
			Strategy: z.Name(),
			Reason:   "z reverted toward mean",
		})
	}

	if score < z.cfg.ExitZ {
		eval.Signals = append(eval.Signals, types.Signal{
			Time:     tick.Time,
			Type:     types.SignalTypeExitShort,
			Strategy: z.Name(),
			Reason:   "z reverted toward mean",
		})
	}

	var side types.Side
	switch {
	case score < -z.cfg.EntryZ:
		side = types.SideLong
	case score > z.cfg.EntryZ:
		side = types.SideShort
	default:
		return eval, nil
	}

	// The reversion target is the rolling mean; a deviation too small to
	// clear round-trip cost is not worth entering however extreme its z.
	if !z.gate.Allows(tick.Price, stats.Mean) {
		return eval, nil
	}

	plan := types.OrderPlan{
		Side:   side,
		EntryZ: optional.Some(score),
	}

	eval.Signals = append(eval.Signals, types.Signal{
		Time:     tick.Time,
		Type:     entrySignalType(side),
		Strategy: z.Name(),
		Reason:   "z beyond entry threshold",
		Plan:     optional.Some(plan),
	})

	return eval, nil
}
