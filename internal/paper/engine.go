package paper

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/cost"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/strategy"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/internal/window"
)

// Engine consumes one price stream and advances the whole simulation one
// tick at a time. Each tick is processed atomically: windows, detector,
// lifecycle, and ledger all see the same tick before the next one is
// admitted, and a fresh state snapshot is published at the end of every
// tick. Snapshot readers never block the tick path for long; they copy.
type Engine struct {
	cfg      *config.Config
	log      *logger.Logger
	costs    cost.Model
	detector strategy.Detector
	windows  *window.Store
	ledger   *Ledger
	life     *Lifecycle
	tracker  *SessionTracker

	mu   sync.RWMutex
	snap types.EngineSnapshot

	lastTick time.Time
	dropped  int64
	ticks    int64
}

// NewEngine validates the config and assembles the engine: cost model,
// detector, the windows the detector asks for, ledger, and lifecycle.
func NewEngine(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	costs := cost.NewModel(cfg.Cost)

	detector, err := strategy.New(cfg, costs)
	if err != nil {
		return nil, err
	}

	windows, err := window.NewStore(detector.WindowConfigs()...)
	if err != nil {
		return nil, err
	}

	ledger := NewLedger(cfg.Trading.InitialCash)

	return &Engine{
		cfg:      cfg,
		log:      log,
		costs:    costs,
		detector: detector,
		windows:  windows,
		ledger:   ledger,
		life:     NewLifecycle(cfg.Trading, costs, ledger, log),
		tracker:  NewSessionTracker(time.Now(), cfg.Trading.InitialCash),
	}, nil
}

// Run drains the stream until it ends or the context is cancelled. Stream
// errors are logged and skipped; the feed is responsible for reconnecting.
func (e *Engine) Run(ctx context.Context, stream iter.Seq2[types.PriceTick, error]) error {
	e.log.Info("engine started",
		zap.String("product", e.cfg.Product),
		zap.String("strategy", e.detector.Name()),
		zap.Float64("initial_cash", e.cfg.Trading.InitialCash),
	)

	for tick, err := range stream {
		if ctx.Err() != nil {
			break
		}

		if err != nil {
			e.log.Warn("feed error", zap.Error(err))

			continue
		}

		e.Ingest(tick)
	}

	e.logSummary()

	return ctx.Err()
}

// Ingest runs one tick through the pipeline. Ticks with non-increasing
// timestamps or invalid prices are dropped and counted; state is never
// rewound. Returns whether the tick was accepted.
func (e *Engine) Ingest(tick types.PriceTick) bool {
	if err := tick.Validate(); err != nil {
		e.dropped++
		e.log.Warn("dropped invalid tick", zap.Error(err))

		return false
	}

	if !e.lastTick.IsZero() && !tick.Time.After(e.lastTick) {
		e.dropped++
		e.log.Debug("dropped out-of-order tick",
			zap.Time("tick_time", tick.Time),
			zap.Time("last_time", e.lastTick),
		)

		return false
	}

	e.lastTick = tick.Time
	e.ticks++
	e.process(tick)

	return true
}

func (e *Engine) process(tick types.PriceTick) {
	e.windows.Update(tick)

	eval, err := e.detector.Evaluate(tick, e.windows)
	if err != nil {
		e.log.Error("strategy evaluation failed", zap.Error(err))

		eval = strategy.Evaluation{}
	}

	events := e.life.OnTick(TickContext{Tick: tick, Signals: eval.Signals, Exit: eval.Exit})
	for _, ev := range events {
		e.logEvent(ev)

		if ev.Type == EventPositionClosed {
			e.tracker.RecordClose(ev.PnL)
		}
	}

	equity := e.ledger.MarkToMarket(tick.Price, e.life.Positions())
	e.tracker.RecordEquity(equity)

	e.publish(tick, equity)
}

func (e *Engine) publish(tick types.PriceTick, equity float64) {
	breach := optional.None[types.Breach]()
	if reporter, ok := e.detector.(strategy.BreachReporter); ok {
		breach = reporter.Breach()
	}

	snap := types.EngineSnapshot{
		Time:          tick.Time,
		Price:         tick.Price,
		Windows:       e.windows.AllStats(),
		Breach:        breach,
		Positions:     e.life.Positions(),
		PendingOrders: e.life.Orders(),
		Cash:          e.ledger.Cash(),
		Equity:        equity,
		RealizedPnL:   e.ledger.RealizedPnL(),
		DroppedTicks:  e.dropped,
		Ticks:         e.ticks,
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
}

// Snapshot returns the state published after the most recently completed
// tick. Zero value before the first tick.
func (e *Engine) Snapshot() types.EngineSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snap
}

// SessionStats returns the run statistics accumulated so far.
func (e *Engine) SessionStats() types.SessionStats {
	return e.tracker.Stats()
}

func (e *Engine) logEvent(ev Event) {
	fields := []zap.Field{
		zap.String("reason", ev.Reason),
		zap.Float64("fill_price", ev.FillPrice),
	}

	if pos, err := ev.Position.Take(); err == nil {
		fields = append(fields,
			zap.String("id", pos.ID),
			zap.String("side", string(pos.Side)),
			zap.Float64("quantity", pos.Quantity),
			zap.Float64("entry_price", pos.EntryPrice),
		)
	}

	if order, err := ev.Order.Take(); err == nil {
		fields = append(fields,
			zap.String("id", order.ID),
			zap.String("side", string(order.Side)),
			zap.Float64("trigger_price", order.TriggerPrice),
		)
	}

	if ev.Type == EventPositionClosed {
		fields = append(fields, zap.Float64("pnl", ev.PnL))
	}

	e.log.Info(string(ev.Type), fields...)
}

func (e *Engine) logSummary() {
	stats := e.tracker.Stats()

	e.log.Info("session summary",
		zap.Int("total_trades", stats.TotalTrades),
		zap.Int("winning_trades", stats.WinningTrades),
		zap.Int("losing_trades", stats.LosingTrades),
		zap.Float64("realized_pnl", stats.RealizedPnL),
		zap.Float64("max_profit", stats.MaxProfit),
		zap.Float64("max_loss", stats.MaxLoss),
		zap.Float64("max_drawdown", stats.MaxDrawdown),
		zap.Float64("final_cash", e.ledger.Cash()),
		zap.Int64("ticks", e.ticks),
		zap.Int64("dropped_ticks", e.dropped),
	)
}
