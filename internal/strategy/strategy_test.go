package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newDetectorStore builds a window store from the detector's own declarations,
// the same way the engine does.
func newDetectorStore(t *testing.T, d Detector) *window.Store {
	t.Helper()

	store, err := window.NewStore(d.WindowConfigs()...)
	require.NoError(t, err)

	return store
}

// feedSeries pushes prices through the store and the detector at one-second
// spacing, returning the final evaluation.
func feedSeries(t *testing.T, d Detector, store *window.Store, prices []float64) Evaluation {
	t.Helper()

	var last Evaluation

	for i, px := range prices {
		tick := types.PriceTick{Time: testStart.Add(time.Duration(i) * time.Second), Price: px}
		store.Update(tick)

		eval, err := d.Evaluate(tick, store)
		require.NoError(t, err)

		last = eval
	}

	return last
}

func entriesOf(eval Evaluation) []types.Signal {
	var out []types.Signal

	for _, s := range eval.Signals {
		if s.IsEntry() {
			out = append(out, s)
		}
	}

	return out
}

func openGate() ProfitGate {
	return ProfitGate{Notional: 1000, RoundTrip: 0, MinRatio: 0}
}
