package paper

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/cost"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/strategy"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
)

type EventType string

const (
	EventOrderPlaced    EventType = "order_placed"
	EventOrderFilled    EventType = "order_filled"
	EventOrderCancelled EventType = "order_cancelled"
	EventPositionOpened EventType = "position_opened"
	EventPositionClosed EventType = "position_closed"
)

// Event records one state transition of an order or position during a tick.
type Event struct {
	Type      EventType
	Time      time.Time
	Reason    string
	Position  optional.Option[types.Position]
	Order     optional.Option[types.PendingOrder]
	FillPrice float64
	// PnL is set on position_closed events.
	PnL float64
}

// TickContext is everything the lifecycle manager needs for one tick: the
// tick itself, the detector's signals, and the detector's exit context.
type TickContext struct {
	Tick    types.PriceTick
	Signals []types.Signal
	Exit    strategy.ExitContext
}

// Lifecycle owns every order and position transition. Within a tick the
// order of operations is fixed: trailing stops tighten, then risk exits
// (stop levels and z-stops) run before take-profits, then signal exits,
// then resting orders fill or expire, and entries go last against whatever
// capacity the exits just freed.
type Lifecycle struct {
	cfg    config.TradingConfig
	costs  cost.Model
	ledger *Ledger
	log    *logger.Logger

	positions []types.Position
	orders    []types.PendingOrder
}

// NewLifecycle creates a lifecycle manager over the given ledger.
func NewLifecycle(cfg config.TradingConfig, costs cost.Model, ledger *Ledger, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		cfg:    cfg,
		costs:  costs,
		ledger: ledger,
		log:    log,
	}
}

// OnTick advances every order and position against the tick and returns the
// transitions that happened.
func (l *Lifecycle) OnTick(ctx TickContext) []Event {
	var events []Event

	l.updateTrailingStops(ctx)

	events = append(events, l.runPriceExits(ctx)...)
	events = append(events, l.runSignalExits(ctx)...)
	events = append(events, l.settleOrders(ctx)...)
	events = append(events, l.runEntries(ctx)...)

	return events
}

// Positions returns a copy of the open positions.
func (l *Lifecycle) Positions() []types.Position {
	out := make([]types.Position, len(l.positions))
	copy(out, l.positions)

	return out
}

// Orders returns a copy of the resting orders.
func (l *Lifecycle) Orders() []types.PendingOrder {
	out := make([]types.PendingOrder, len(l.orders))
	copy(out, l.orders)

	return out
}

// updateTrailingStops tightens trailing stops toward the market. A trailing
// stop only ever moves in the position's favor.
func (l *Lifecycle) updateTrailingStops(ctx TickContext) {
	std, err := ctx.Exit.ShortStd.Take()
	if err != nil {
		return
	}

	px := ctx.Tick.Price

	for i := range l.positions {
		pos := &l.positions[i]

		mult, err := pos.TrailStdMult.Take()
		if err != nil {
			continue
		}

		if pos.Side == types.SideLong {
			candidate := px - std*mult
			if cur, err := pos.StopPrice.Take(); err != nil || candidate > cur {
				pos.StopPrice = optional.Some(candidate)
			}
		} else {
			candidate := px + std*mult
			if cur, err := pos.StopPrice.Take(); err != nil || candidate < cur {
				pos.StopPrice = optional.Some(candidate)
			}
		}
	}
}

// runPriceExits closes positions whose stop or target has been hit. Stops
// are checked first: when one tick crosses both levels the loss-limiting
// path wins. Stops are market exits at taker cost; targets fill like a
// resting order at the target level at maker cost.
func (l *Lifecycle) runPriceExits(ctx TickContext) []Event {
	var events []Event

	px := ctx.Tick.Price
	kept := l.positions[:0]

	for _, pos := range l.positions {
		if l.stopHit(pos, px) || l.zStopHit(pos, ctx.Exit) {
			exitPx := l.costs.MarketFillPrice(px, pos.Side.ExitSide())
			events = append(events, l.close(pos, ctx.Tick.Time, exitPx, types.ExitReasonStopLoss))

			continue
		}

		if target, err := pos.TargetPrice.Take(); err == nil && targetHit(pos.Side, px, target) {
			exitPx := l.costs.RestingFillPrice(target, pos.Side.ExitSide())
			events = append(events, l.close(pos, ctx.Tick.Time, exitPx, types.ExitReasonTakeProfit))

			continue
		}

		kept = append(kept, pos)
	}

	l.positions = kept

	return events
}

func (l *Lifecycle) stopHit(pos types.Position, px float64) bool {
	stop, err := pos.StopPrice.Take()
	if err != nil {
		return false
	}

	if pos.Side == types.SideLong {
		return px <= stop
	}

	return px >= stop
}

// zStopHit triggers when the z-score has worsened past the entry z by the
// detector's stop width. Positions without an entry z never z-stop.
func (l *Lifecycle) zStopHit(pos types.Position, exit strategy.ExitContext) bool {
	entryZ, err := pos.EntryZ.Take()
	if err != nil {
		return false
	}

	z, err := exit.Z.Take()
	if err != nil {
		return false
	}

	worsen, err := exit.ZStopWorsen.Take()
	if err != nil {
		return false
	}

	if pos.Side == types.SideLong {
		return z <= entryZ-worsen
	}

	return z >= entryZ+worsen
}

func targetHit(side types.Side, px, target float64) bool {
	if side == types.SideLong {
		return px >= target
	}

	return px <= target
}

// runSignalExits closes positions released by detector exit signals. A
// position carrying a breakeven level is held through the signal until price
// has cleared it; its stop remains the only way out below breakeven.
func (l *Lifecycle) runSignalExits(ctx TickContext) []Event {
	var events []Event

	px := ctx.Tick.Price

	for _, sig := range ctx.Signals {
		if !sig.IsExit() {
			continue
		}

		side := sig.ExitSide()
		kept := l.positions[:0]

		for _, pos := range l.positions {
			if pos.Side != side {
				kept = append(kept, pos)

				continue
			}

			if be, err := pos.Breakeven.Take(); err == nil && !pastBreakeven(pos.Side, px, be) {
				kept = append(kept, pos)

				continue
			}

			exitPx := l.costs.MarketFillPrice(px, pos.Side.ExitSide())
			events = append(events, l.close(pos, ctx.Tick.Time, exitPx, types.ExitReasonSignal))
		}

		l.positions = kept
	}

	return events
}

func pastBreakeven(side types.Side, px, breakeven float64) bool {
	if side == types.SideLong {
		return px > breakeven
	}

	return px < breakeven
}

// settleOrders expires stale resting orders and fills the ones the market
// traded through. A fill that would breach position capacity or side
// exclusivity cancels the order instead.
func (l *Lifecycle) settleOrders(ctx TickContext) []Event {
	var events []Event

	px := ctx.Tick.Price
	now := ctx.Tick.Time
	kept := l.orders[:0]

	for _, order := range l.orders {
		if l.cfg.OrderTTL > 0 && now.Sub(order.PlacedAt) > l.cfg.OrderTTL.Std() {
			order.Status = types.OrderStatusCancelled
			events = append(events, Event{
				Type:   EventOrderCancelled,
				Time:   now,
				Reason: "ttl expired",
				Order:  optional.Some(order),
			})

			continue
		}

		if !triggered(order, px) {
			kept = append(kept, order)

			continue
		}

		if len(l.positions) >= l.cfg.MaxPositions || (l.cfg.SideExclusive && l.hasPositionOnSide(order.Side)) {
			order.Status = types.OrderStatusCancelled
			events = append(events, Event{
				Type:   EventOrderCancelled,
				Time:   now,
				Reason: "no capacity at fill",
				Order:  optional.Some(order),
			})

			continue
		}

		fillPx := l.costs.RestingFillPrice(order.TriggerPrice, order.Side.EntrySide())
		l.ledger.ApplyFill(order.Side.EntrySide(), order.Quantity, fillPx)

		pos := types.Position{
			ID:          order.ID,
			Side:        order.Side,
			Quantity:    order.Quantity,
			EntryPrice:  fillPx,
			EntryTime:   now,
			StopPrice:   optional.Some(order.StopLoss),
			TargetPrice: optional.Some(order.TakeProfit),
		}
		l.positions = append(l.positions, pos)

		order.Status = types.OrderStatusFilled
		events = append(events,
			Event{Type: EventOrderFilled, Time: now, Order: optional.Some(order), FillPrice: fillPx},
			Event{Type: EventPositionOpened, Time: now, Position: optional.Some(pos), FillPrice: fillPx},
		)
	}

	l.orders = kept

	return events
}

func triggered(order types.PendingOrder, px float64) bool {
	if order.Side == types.SideLong {
		return px <= order.TriggerPrice
	}

	return px >= order.TriggerPrice
}

// runEntries admits entry signals against the capacity that remains after
// exits and fills.
func (l *Lifecycle) runEntries(ctx TickContext) []Event {
	var events []Event

	for _, sig := range ctx.Signals {
		if !sig.IsEntry() {
			continue
		}

		plan, err := sig.Plan.Take()
		if err != nil {
			l.log.Warn("entry signal without a plan", zap.String("strategy", sig.Strategy))

			continue
		}

		if !l.admit(plan.Side) {
			continue
		}

		if trigger, err := plan.Limit.Take(); err == nil {
			if ev, ok := l.placeOrder(ctx.Tick, plan, trigger); ok {
				events = append(events, ev)
			}

			continue
		}

		events = append(events, l.openAtMarket(ctx.Tick, plan)...)
	}

	return events
}

// admit enforces the capacity invariants for a new entry: total exposure
// (positions plus resting orders) under max_orders, open positions under
// max_positions, and at most one exposure per side when side exclusivity is
// on.
func (l *Lifecycle) admit(side types.Side) bool {
	if len(l.positions)+len(l.orders) >= l.cfg.MaxOrders {
		return false
	}

	if len(l.positions) >= l.cfg.MaxPositions {
		return false
	}

	if l.cfg.SideExclusive && (l.hasPositionOnSide(side) || l.hasOrderOnSide(side)) {
		return false
	}

	return true
}

func (l *Lifecycle) hasPositionOnSide(side types.Side) bool {
	for _, pos := range l.positions {
		if pos.Side == side {
			return true
		}
	}

	return false
}

func (l *Lifecycle) hasOrderOnSide(side types.Side) bool {
	for _, order := range l.orders {
		if order.Side == side {
			return true
		}
	}

	return false
}

func (l *Lifecycle) notionalFor(plan types.OrderPlan) float64 {
	if frac, err := plan.NotionalFrac.Take(); err == nil {
		return l.ledger.Cash() * frac
	}

	return l.cfg.NotionalPerTrade
}

func (l *Lifecycle) placeOrder(tick types.PriceTick, plan types.OrderPlan, trigger float64) (Event, bool) {
	takeProfit, tpErr := plan.Target.Take()
	stopDistance, sdErr := plan.StopDistance.Take()

	if tpErr != nil || sdErr != nil {
		l.log.Warn("resting order plan missing take-profit or stop", zap.String("side", string(plan.Side)))

		return Event{}, false
	}

	stopLoss := trigger - stopDistance
	if plan.Side == types.SideShort {
		stopLoss = trigger + stopDistance
	}

	order := types.PendingOrder{
		ID:           uuid.New().String(),
		Side:         plan.Side,
		TriggerPrice: trigger,
		Quantity:     l.notionalFor(plan) / trigger,
		TakeProfit:   takeProfit,
		StopLoss:     stopLoss,
		PlacedAt:     tick.Time,
		Status:       types.OrderStatusPending,
	}

	if err := order.Validate(); err != nil {
		l.log.Warn("rejected invalid resting order", zap.Error(err))

		return Event{}, false
	}

	l.orders = append(l.orders, order)

	return Event{Type: EventOrderPlaced, Time: tick.Time, Order: optional.Some(order)}, true
}

func (l *Lifecycle) openAtMarket(tick types.PriceTick, plan types.OrderPlan) []Event {
	fillPx := l.costs.MarketFillPrice(tick.Price, plan.Side.EntrySide())
	quantity := l.notionalFor(plan) / fillPx

	l.ledger.ApplyFill(plan.Side.EntrySide(), quantity, fillPx)

	stopPrice := optional.None[float64]()
	if dist, err := plan.StopDistance.Take(); err == nil {
		if plan.Side == types.SideLong {
			stopPrice = optional.Some(fillPx - dist)
		} else {
			stopPrice = optional.Some(fillPx + dist)
		}
	}

	pos := types.Position{
		ID:           uuid.New().String(),
		Side:         plan.Side,
		Quantity:     quantity,
		EntryPrice:   fillPx,
		EntryTime:    tick.Time,
		StopPrice:    stopPrice,
		TargetPrice:  plan.Target,
		Breakeven:    plan.Breakeven,
		TrailStdMult: plan.TrailStdMult,
		EntryZ:       plan.EntryZ,
	}
	l.positions = append(l.positions, pos)

	return []Event{{Type: EventPositionOpened, Time: tick.Time, Position: optional.Some(pos), FillPrice: fillPx}}
}

func (l *Lifecycle) close(pos types.Position, at time.Time, exitPx float64, reason string) Event {
	pnl := l.ledger.Close(pos, exitPx)

	return Event{
		Type:      EventPositionClosed,
		Time:      at,
		Reason:    reason,
		Position:  optional.Some(pos),
		FillPrice: exitPx,
		PnL:       pnl,
	}
}
