// Package cost is the single place simulated execution cost is computed.
// Every fill and exit in the engine prices through here; no other component
// may apply fees, so costs are never double-counted.
package cost

import (
	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

// Model combines a fee rate, a slippage term, and half the quoted spread into
// one cost fraction per side. Buys pay the premium, sells receive the discount.
type Model struct {
	makerFee   float64
	takerFee   float64
	slippageBP float64
	spreadBP   float64
}

// NewModel builds a cost model from config.
func NewModel(cfg config.CostConfig) Model {
	return Model{
		makerFee:   cfg.MakerFee,
		takerFee:   cfg.TakerFee,
		slippageBP: cfg.SlippageBP,
		spreadBP:   cfg.SpreadBP,
	}
}

// TakerFraction is the per-side cost of an immediately-matching fill:
// taker fee + slippage + half the spread.
func (m Model) TakerFraction() float64 {
	return m.takerFee + m.slippageBP/10000.0 + m.spreadBP/20000.0
}

// MakerFraction is the per-side cost of a resting fill. A resting order sits
// at its own price, so it pays no slippage and no spread crossing.
func (m Model) MakerFraction() float64 {
	return m.makerFee
}

// RoundTrip is the total cost fraction of entering and exiting at taker.
func (m Model) RoundTrip() float64 {
	return 2 * m.TakerFraction()
}

// MarketFillPrice is the effective price of a market fill at mid.
func (m Model) MarketFillPrice(mid float64, side types.PurchaseType) float64 {
	return apply(mid, side, m.TakerFraction())
}

// RestingFillPrice is the effective price when the market trades through a
// resting order's trigger.
func (m Model) RestingFillPrice(trigger float64, side types.PurchaseType) float64 {
	return apply(trigger, side, m.MakerFraction())
}

func apply(px float64, side types.PurchaseType, fraction float64) float64 {
	if side == types.PurchaseTypeBuy {
		return px * (1.0 + fraction)
	}

	return px * (1.0 - fraction)
}

// RoundTripFees is the dollar cost of a round trip on the given notional.
func (m Model) RoundTripFees(notional float64) float64 {
	return notional * m.RoundTrip()
}

// Breakeven returns the price an entry at px must reach before round-trip
// fees are recovered.
func (m Model) Breakeven(px float64, side types.Side) float64 {
	if side == types.SideLong {
		return px * (1.0 + m.RoundTrip())
	}

	return px * (1.0 - m.RoundTrip())
}
