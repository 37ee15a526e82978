// Package paper simulates order execution and portfolio accounting against a
// live price stream. Nothing here talks to an exchange; fills, fees, and
// P&L are all simulated, but the books balance exactly.
package paper

import (
	"github.com/shopspring/decimal"

	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

// Ledger tracks cash and realized P&L in fixed-point decimal so that the
// books reconcile exactly: across any open/close cycle the cash delta equals
// the realized P&L to the last cent-fraction, with no float drift.
type Ledger struct {
	initial  decimal.Decimal
	cash     decimal.Decimal
	realized decimal.Decimal
}

// NewLedger creates a ledger seeded with the starting cash balance.
func NewLedger(initialCash float64) *Ledger {
	initial := decimal.NewFromFloat(initialCash)

	return &Ledger{
		initial:  initial,
		cash:     initial,
		realized: decimal.Zero,
	}
}

// ApplyFill moves cash by the signed notional of a fill: buys debit, sells
// credit.
func (l *Ledger) ApplyFill(direction types.PurchaseType, quantity, price float64) {
	notional := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price))

	if direction == types.PurchaseTypeBuy {
		l.cash = l.cash.Sub(notional)
	} else {
		l.cash = l.cash.Add(notional)
	}
}

// Close books a position exit at the given price: cash moves by the full
// exit notional and the trade's P&L is added to realized. Returns the P&L.
func (l *Ledger) Close(pos types.Position, exitPrice float64) float64 {
	l.ApplyFill(pos.Side.ExitSide(), pos.Quantity, exitPrice)

	qty := decimal.NewFromFloat(pos.Quantity)
	entry := decimal.NewFromFloat(pos.EntryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	var pnl decimal.Decimal
	if pos.Side == types.SideLong {
		pnl = exit.Sub(entry).Mul(qty)
	} else {
		pnl = entry.Sub(exit).Mul(qty)
	}

	l.realized = l.realized.Add(pnl)

	result, _ := pnl.Float64()

	return result
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	cash, _ := l.cash.Float64()

	return cash
}

// RealizedPnL returns cumulative realized P&L.
func (l *Ledger) RealizedPnL() float64 {
	pnl, _ := l.realized.Float64()

	return pnl
}

// MarkToMarket values the portfolio at the given price: cash plus the market
// value of every open position, short value counted negative. For a flat
// book this equals initial cash plus realized P&L.
func (l *Ledger) MarkToMarket(price float64, positions []types.Position) float64 {
	equity := l.cash

	px := decimal.NewFromFloat(price)
	for _, pos := range positions {
		value := decimal.NewFromFloat(pos.Quantity).Mul(px)

		if pos.Side == types.SideLong {
			equity = equity.Add(value)
		} else {
			equity = equity.Sub(value)
		}
	}

	result, _ := equity.Float64()

	return result
}
