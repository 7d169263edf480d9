// Package engine runs the bar pipeline: indicator updates, pattern
// detection, signal evaluation, and position management, sharded so all
// bars for a symbol are processed in order by one worker.
package engine

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vnquant/watchtower/alert"
	"github.com/vnquant/watchtower/cache"
	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/internal/id"
	"github.com/vnquant/watchtower/journal"
	"github.com/vnquant/watchtower/market"
	"github.com/vnquant/watchtower/metrics"
	"github.com/vnquant/watchtower/pattern"
	"github.com/vnquant/watchtower/portfolio"
	"github.com/vnquant/watchtower/signal"
)

// Config sizes the pipeline.
type Config struct {
	// Workers is the number of symbol shards. Defaults to 4.
	Workers int

	// Location is the exchange timezone that defines trading-day
	// boundaries. Defaults to UTC.
	Location *time.Location

	// History is the number of recent bars kept per symbol for pattern
	// scanning. Defaults to the detector window + 1.
	History int

	Indicators indicators.Params
	Evaluator  signal.Options
}

// Deps are the pipeline collaborators. Manager is required; Journal,
// Cache, Alerts, and Metrics may be nil.
type Deps struct {
	Manager *portfolio.Manager
	Detect  *pattern.Detector
	Journal journal.Journal
	Cache   cache.Store
	Alerts  *alert.Dispatcher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Engine consumes bars and drives every downstream stage. Per-symbol
// state lives inside the worker that owns the symbol's shard; the only
// cross-shard state is the portfolio manager and the trading-day marker.
type Engine struct {
	cfg  Config
	deps Deps

	dayMu   sync.Mutex
	day     time.Time
	lastBar time.Time
}

// New creates an engine. Detector and manager must be set.
func New(cfg Config, deps Deps) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.History <= 0 {
		cfg.History = deps.Detect.Window() + 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Engine{cfg: cfg, deps: deps}
}

// worker owns the indicator state and bar history for its shard of
// symbols. Only its goroutine touches these maps.
type worker struct {
	in      chan market.Bar
	ind     *indicators.Engine
	eval    *signal.Evaluator
	history map[string][]market.Bar
}

// Run processes bars until the channel closes or ctx is cancelled. On
// shutdown the workers drain their queues, then a final equity snapshot
// is journaled.
func (e *Engine) Run(ctx context.Context, bars <-chan market.Bar) error {
	workers := make([]*worker, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := range workers {
		w := &worker{
			in:      make(chan market.Bar, 64),
			ind:     indicators.NewEngine(e.cfg.Indicators),
			eval:    signal.NewEvaluator(e.cfg.Evaluator),
			history: make(map[string][]market.Bar),
		}
		workers[i] = w

		wg.Add(1)
		go func() {
			defer wg.Done()
			for bar := range w.in {
				e.process(ctx, w, bar)
			}
		}()
	}

	var runErr error

loop:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		case bar, ok := <-bars:
			if !ok {
				break loop
			}
			workers[shard(bar.Symbol, len(workers))].in <- bar
		}
	}

	for _, w := range workers {
		close(w.in)
	}
	wg.Wait()

	e.flushEquity()
	return runErr
}

// shard maps a symbol to a worker index so each symbol's bars are
// serialized.
func shard(symbol string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return int(h.Sum32() % uint32(n))
}

func (e *Engine) process(ctx context.Context, w *worker, bar market.Bar) {
	start := time.Now()
	m := e.deps.Metrics

	snap, err := w.ind.Update(bar)
	switch err {
	case nil:
	case indicators.ErrInsufficientHistory:
		// State advanced; the bar still feeds the pattern history.
		e.rollDay(bar.Time)
		if m != nil {
			m.BarsTotal.Inc()
		}
		e.remember(w, bar)
		return
	default:
		// Rejected bars leave everything untouched, including the
		// trading-day marker.
		if m != nil {
			m.BarsRejected.WithLabelValues("invalid").Inc()
		}
		e.deps.Log.Warn("bar rejected",
			zap.String("symbol", bar.Symbol),
			zap.Time("time", bar.Time),
			zap.Error(err))
		return
	}

	e.rollDay(bar.Time)
	if m != nil {
		m.BarsTotal.Inc()
	}
	recent := e.remember(w, bar)

	var ev *pattern.Event
	if found, ok := e.deps.Detect.Scan(recent); ok {
		ev = &found
	}

	sig := w.eval.Evaluate(snap, ev)
	if m != nil {
		m.SignalsTotal.WithLabelValues(sig.Action.String()).Inc()
		m.EvalDur.Observe(time.Since(start).Seconds())
	}

	e.publish(ctx, snap, sig)
	e.record(sig)
	e.notifySignal(sig)

	events := e.deps.Manager.Apply(sig)
	for _, pev := range events {
		e.handleEvent(pev)
	}

	if m != nil && len(events) > 0 {
		view := e.deps.Manager.Snapshot()
		m.OpenPositions.Set(float64(view.OpenPositions))
		m.Equity.Set(view.Equity)
	}
}

// rollDay resets the daily counters when an accepted bar crosses into a
// new trading day in the exchange timezone. Only validated bars reach
// here, so a malformed timestamp can never advance the day.
func (e *Engine) rollDay(t time.Time) {
	lt := t.In(e.cfg.Location)
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, e.cfg.Location)

	e.dayMu.Lock()
	defer e.dayMu.Unlock()

	if t.After(e.lastBar) {
		e.lastBar = t
	}
	if e.day.IsZero() {
		e.day = day
		return
	}
	if day.After(e.day) {
		e.day = day
		e.deps.Manager.ResetDay(day)
	}
}

// remember appends the bar to the symbol's trailing history and returns
// the window the pattern detector scans.
func (e *Engine) remember(w *worker, bar market.Bar) []market.Bar {
	h := append(w.history[bar.Symbol], bar)
	if len(h) > e.cfg.History {
		h = h[len(h)-e.cfg.History:]
	}
	w.history[bar.Symbol] = h
	return h
}

// publish pushes the latest snapshot and signal into the cache.
func (e *Engine) publish(ctx context.Context, snap indicators.Snapshot, sig signal.Signal) {
	if e.deps.Cache == nil {
		return
	}
	if err := e.deps.Cache.PutSnapshot(ctx, snap); err != nil {
		e.deps.Log.Warn("cache snapshot", zap.String("symbol", snap.Symbol), zap.Error(err))
	}
	if err := e.deps.Cache.PutSignal(ctx, sig); err != nil {
		e.deps.Log.Warn("cache signal", zap.String("symbol", sig.Symbol), zap.Error(err))
	}
}

// record journals actionable signals.
func (e *Engine) record(sig signal.Signal) {
	if e.deps.Journal == nil || sig.Action == signal.Hold {
		return
	}
	err := e.deps.Journal.RecordSignal(journal.SignalRecord{
		ID:     id.New(),
		Symbol: sig.Symbol,
		Time:   sig.Time,
		Action: sig.Action.String(),
		Price:  sig.Price,
		RSI:    sig.Snapshot.RSI,
		Stop:   sig.Snapshot.Stop,
		Reason: sig.Reason,
	})
	if err != nil {
		e.deps.Log.Error("journal signal", zap.String("symbol", sig.Symbol), zap.Error(err))
	}
}

func (e *Engine) notifySignal(sig signal.Signal) {
	if e.deps.Alerts == nil || sig.Action == signal.Hold {
		return
	}
	e.countAlert(e.deps.Alerts.Signal(sig), alertKindForAction(sig.Action))
}

// handleEvent journals and alerts one position lifecycle event.
func (e *Engine) handleEvent(ev portfolio.Event) {
	m := e.deps.Metrics
	if m != nil {
		switch ev.Kind {
		case portfolio.EventOpened:
			m.PositionsOpened.Inc()
		case portfolio.EventClosed:
			m.PositionsClosed.WithLabelValues(string(ev.Position.CloseReason)).Inc()
		}
	}

	if e.deps.Journal != nil {
		err := e.deps.Journal.RecordPositionEvent(journal.PositionEventRecord{
			PositionID: ev.Position.ID,
			Symbol:     ev.Position.Symbol,
			Time:       ev.Time,
			Kind:       ev.Kind.String(),
			Price:      ev.Price,
			Stop:       currentStop(ev.Position),
			Detail:     ev.Reason,
		})
		if err != nil {
			e.deps.Log.Error("journal event", zap.String("symbol", ev.Position.Symbol), zap.Error(err))
		}

		if ev.Kind == portfolio.EventClosed {
			err := e.deps.Journal.RecordTrade(journal.TradeRecord{
				TradeID:    ev.Position.ID,
				Symbol:     ev.Position.Symbol,
				Shares:     ev.Position.Shares,
				EntryPrice: ev.Position.EntryPrice,
				ExitPrice:  ev.Position.ExitPrice,
				OpenTime:   ev.Position.EntryTime,
				CloseTime:  ev.Position.ExitTime,
				RealizedPL: ev.Realized,
				Reason:     string(ev.Position.CloseReason),
			})
			if err != nil {
				e.deps.Log.Error("journal trade", zap.String("symbol", ev.Position.Symbol), zap.Error(err))
			}
		}
	}

	if e.deps.Alerts != nil {
		e.countAlert(e.deps.Alerts.Position(ev), alertKindForEvent(ev.Kind))
	}
}

func (e *Engine) countAlert(emitted bool, kind alert.Kind) {
	m := e.deps.Metrics
	if m == nil {
		return
	}
	if emitted {
		m.AlertsEmitted.WithLabelValues(string(kind)).Inc()
	} else {
		m.AlertsSuppressed.Inc()
	}
}

func alertKindForAction(a signal.Action) alert.Kind {
	if a == signal.Sell {
		return alert.KindSellSignal
	}
	return alert.KindBuySignal
}

func alertKindForEvent(k portfolio.EventKind) alert.Kind {
	switch k {
	case portfolio.EventOpened:
		return alert.KindOpened
	case portfolio.EventClosed:
		return alert.KindClosed
	default:
		return alert.KindStopMoved
	}
}

// currentStop picks the stop the event reflects: the trailing stop once
// armed, else the static one.
func currentStop(p portfolio.Position) float64 {
	if p.TrailingStop > 0 {
		return p.TrailingStop
	}
	return p.StopLoss
}

// flushEquity journals a final equity snapshot on shutdown.
func (e *Engine) flushEquity() {
	if e.deps.Journal == nil {
		return
	}

	e.dayMu.Lock()
	at := e.lastBar
	e.dayMu.Unlock()
	if at.IsZero() {
		at = time.Now().UTC()
	}

	view := e.deps.Manager.Snapshot()
	err := e.deps.Journal.RecordEquity(journal.EquitySnapshot{
		Time:          at,
		Equity:        view.Equity,
		OpenPositions: view.OpenPositions,
		DayRealized:   view.DayRealized,
	})
	if err != nil {
		e.deps.Log.Error("journal equity", zap.Error(err))
	}
}
