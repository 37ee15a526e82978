// Package strategy contains the signal detectors. A detector is a pure
// function of the current tick and the window store: it never touches cash,
// orders, or positions, and all of its per-run state is private to it. The
// lifecycle manager decides what a signal is allowed to do.
package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/cost"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// ExitContext carries per-tick values the lifecycle manager needs to run
// price- and z-driven exits. Detectors fill only the fields their positions
// rely on.
type ExitContext struct {
	// Z is the current z-score, for positions carrying an entry z.
	Z optional.Option[float64]
	// ZStopWorsen closes a position when z moves this much further against
	// it than its entry z.
	ZStopWorsen optional.Option[float64]
	// ShortStd is the short-window standard deviation trailing stops follow.
	ShortStd optional.Option[float64]
}

// Evaluation is the output of one detector pass over one tick.
type Evaluation struct {
	Signals []types.Signal
	Exit    ExitContext
}

// Detector turns ticks into trade signals.
type Detector interface {
	// Name identifies the detector in signals and logs.
	Name() string
	// WindowConfigs declares the rolling windows the detector reads. The
	// engine builds its window store from these.
	WindowConfigs() []window.Config
	// Evaluate inspects the tick against the windows. Insufficient window
	// data is not an error; the detector simply emits nothing.
	Evaluate(tick types.PriceTick, windows *window.Store) (Evaluation, error)
}

// BreachReporter is implemented by detectors that hold an armed breach, so
// the engine can surface it in snapshots.
type BreachReporter interface {
	Breach() optional.Option[types.Breach]
}

// New builds the detector selected by cfg. The cost model is shared with the
// lifecycle manager so entry gates and fills price identically.
func New(cfg *config.Config, costs cost.Model) (Detector, error) {
	gate := ProfitGate{
		Notional:  cfg.Trading.NotionalPerTrade,
		RoundTrip: costs.RoundTrip(),
		MinRatio:  cfg.Trading.MinProfitRatio,
	}

	switch cfg.Strategy.Name {
	case config.StrategyBollinger:
		return NewBollinger(*cfg.Strategy.Bollinger, gate), nil
	case config.StrategyZScore:
		return NewZScore(*cfg.Strategy.ZScore, gate), nil
	case config.StrategyBreakout:
		return NewBreakout(*cfg.Strategy.Breakout, gate), nil
	case config.StrategyTrend:
		return NewTrend(*cfg.Strategy.Trend, costs), nil
	case config.StrategyRestingLimit:
		return NewRestingLimit(*cfg.Strategy.RestingLimit, gate), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", cfg.Strategy.Name)
	}
}

func noAction() Evaluation {
	return Evaluation{}
}

func entrySignalType(side types.Side) types.SignalType {
	if side == types.SideLong {
		return types.SignalTypeEnterLong
	}

	return types.SignalTypeEnterShort
}
