package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

type PurchaseType string

type OrderStatus string

type Side string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

const (
	ExitReasonStopLoss   string = "stop_loss"
	ExitReasonTakeProfit string = "take_profit"
	ExitReasonSignal     string = "signal"
)

// EntrySide returns the purchase direction that opens a position on this side.
func (s Side) EntrySide() PurchaseType {
	if s == SideLong {
		return PurchaseTypeBuy
	}

	return PurchaseTypeSell
}

// ExitSide returns the purchase direction that closes a position on this side.
func (s Side) ExitSide() PurchaseType {
	if s == SideLong {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

// PendingOrder is a simulated resting limit order. It fills when the market
// trades through its trigger price: at or below for long orders, at or above
// for short orders.
type PendingOrder struct {
	ID           string      `validate:"required,uuid"`
	Side         Side        `validate:"required,oneof=LONG SHORT"`
	TriggerPrice float64     `validate:"required,gt=0"`
	Quantity     float64     `validate:"required,gt=0"`
	TakeProfit   float64     `validate:"required,gt=0"`
	StopLoss     float64     `validate:"required,gt=0"`
	PlacedAt     time.Time   `validate:"required"`
	Status       OrderStatus `validate:"required,oneof=PENDING FILLED CANCELLED"`
}

// Validate validates the PendingOrder struct.
func (o *PendingOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid pending order", err)
	}

	return nil
}

// Position is an open simulated holding. Positions are created only by a fill
// and destroyed only by an exit (stop, target, or strategy reversal).
type Position struct {
	ID         string
	Side       Side
	Quantity   float64 // always > 0; direction is carried by Side
	EntryPrice float64
	EntryTime  time.Time
	// StopPrice is the protective stop. None for strategies whose stop is
	// signal-driven rather than a resting price level (z-score reversion).
	StopPrice optional.Option[float64]
	// TargetPrice is the take-profit level. None when the exit is
	// signal-driven (trend following exits on the opposite cross).
	TargetPrice optional.Option[float64]
	// Breakeven is the price past which accumulated fees are recovered.
	// Trend following refuses to exit on a cross before this level.
	Breakeven optional.Option[float64]
	// TrailStdMult, when set, makes StopPrice trail the market by this many
	// short-window standard deviations, tightening only.
	TrailStdMult optional.Option[float64]
	// EntryZ is the z-score observed at entry, kept for volatility-adaptive
	// stops that trigger when z worsens by a fixed amount from here.
	EntryZ optional.Option[float64]
}

// UnrealizedPnL values the position against the current price: longs gain as
// price rises, shorts gain as it falls.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideLong {
		return p.Quantity * (price - p.EntryPrice)
	}

	return p.Quantity * (p.EntryPrice - price)
}
