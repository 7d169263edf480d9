package portfolio

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vnquant/watchtower/internal/id"
	"github.com/vnquant/watchtower/risk"
	"github.com/vnquant/watchtower/signal"
)

// View is a point-in-time copy of the shared portfolio counters.
type View struct {
	Equity        float64
	OpenPositions int
	DayRealized   float64
	LossLimitHit  bool
}

// Manager drives the per-symbol position state machine:
//
//	NONE -> OPEN -> TRAILING -> CLOSED
//
// and owns the only cross-symbol shared mutable state (equity, open count,
// daily realized PnL, loss-limit flag). Every transition happens under one
// mutex, which also makes the trading-day reset exclusive with in-flight
// CLOSED transitions.
type Manager struct {
	mu sync.Mutex

	policy risk.Policy
	log    *zap.Logger

	equity      float64
	positions   map[string]*Position
	dayRealized float64
	lossLimit   bool
}

// NewManager creates a manager with the given policy and starting equity.
func NewManager(policy risk.Policy, startingEquity float64, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		policy:    policy,
		log:       log,
		equity:    startingEquity,
		positions: make(map[string]*Position),
	}
}

// Apply consumes one signal and returns the lifecycle events it caused.
// Exit conditions are evaluated before any entry, so a SELL is never lost
// and a BUY can never race past an exit on the same bar.
func (m *Manager) Apply(sig signal.Signal) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []Event

	if pos, ok := m.positions[sig.Symbol]; ok {
		events = append(events, m.manage(pos, sig)...)
	}

	if sig.Action == signal.Buy {
		if _, stillOpen := m.positions[sig.Symbol]; !stillOpen {
			if ev, ok := m.open(sig); ok {
				events = append(events, ev)
			}
		}
	}

	return events
}

// manage runs the exit checks for an open position against the bar price.
// Order: static stop, take profit, trailing transitions, then signal exit.
func (m *Manager) manage(pos *Position, sig signal.Signal) []Event {
	price := sig.Price
	var events []Event

	// Static stop loss applies to both OPEN and TRAILING.
	if price <= pos.StopLoss {
		return append(events, m.close(pos, sig, ReasonStopLoss,
			fmt.Sprintf("price %.2f <= stop %.2f", price, pos.StopLoss)))
	}

	switch pos.Status {
	case StatusOpen:
		if price >= pos.TakeProfit {
			return append(events, m.close(pos, sig, ReasonTakeProfit,
				fmt.Sprintf("price %.2f >= target %.2f", price, pos.TakeProfit)))
		}
		if pos.GainPct(price) >= m.policy.TrailingArmPct {
			pos.Status = StatusTrailing
			pos.TrailingStop = risk.TrailingStopPrice(price, m.policy)
			events = append(events, Event{
				Kind:     EventStopAdjusted,
				Time:     sig.Time,
				Price:    price,
				Position: *pos,
				Reason:   fmt.Sprintf("trailing armed at %.2f", pos.TrailingStop),
			})
		}

	case StatusTrailing:
		if price <= pos.TrailingStop {
			return append(events, m.close(pos, sig, ReasonTrailingStop,
				fmt.Sprintf("price %.2f <= trailing stop %.2f", price, pos.TrailingStop)))
		}
		// The trailing stop only tightens, never loosens.
		if next := risk.TrailingStopPrice(price, m.policy); next > pos.TrailingStop {
			pos.TrailingStop = next
			events = append(events, Event{
				Kind:     EventStopAdjusted,
				Time:     sig.Time,
				Price:    price,
				Position: *pos,
				Reason:   fmt.Sprintf("trailing raised to %.2f", next),
			})
		}
	}

	if sig.Action == signal.Sell {
		events = append(events, m.close(pos, sig, ReasonSignalExit, sig.Reason))
	}

	return events
}

// open attempts the NONE->OPEN transition through the risk gate.
func (m *Manager) open(sig signal.Signal) (Event, bool) {
	decision := risk.EvaluateEntry(m.policy, sig.Price, risk.PortfolioSnapshot{
		Equity:        m.equity,
		OpenPositions: len(m.positions),
		DayRealized:   m.dayRealized,
		LossLimitHit:  m.lossLimit,
	})
	if !decision.Allowed {
		// Policy gate, not an error: the signal degrades to HOLD.
		for _, v := range decision.Violations {
			m.log.Debug("entry blocked",
				zap.String("symbol", sig.Symbol),
				zap.String("code", v.Code),
				zap.String("msg", v.Msg))
		}
		return Event{}, false
	}

	pos := &Position{
		ID:         id.New(),
		Symbol:     sig.Symbol,
		Status:     StatusOpen,
		EntryPrice: sig.Price,
		EntryTime:  sig.Time,
		Shares:     decision.Shares,
		StopLoss:   risk.StopLossPrice(sig.Price, m.policy),
		TakeProfit: risk.TakeProfitPrice(sig.Price, m.policy),
	}
	m.positions[sig.Symbol] = pos

	m.log.Info("position opened",
		zap.String("symbol", pos.Symbol),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("shares", pos.Shares),
		zap.Float64("stop", pos.StopLoss),
		zap.Float64("target", pos.TakeProfit))

	return Event{
		Kind:     EventOpened,
		Time:     sig.Time,
		Price:    sig.Price,
		Position: *pos,
		Reason:   sig.Reason,
	}, true
}

// close realizes the position into the portfolio counters and evicts it
// from the open set. Caller holds the mutex.
func (m *Manager) close(pos *Position, sig signal.Signal, reason CloseReason, detail string) Event {
	pos.Status = StatusClosed
	pos.ExitPrice = sig.Price
	pos.ExitTime = sig.Time
	pos.CloseReason = reason

	realized := (pos.ExitPrice - pos.EntryPrice) * pos.Shares
	m.equity += realized
	m.dayRealized += realized
	delete(m.positions, pos.Symbol)

	if !m.lossLimit && risk.DailyLossBreached(m.policy, m.dayRealized, m.equity) {
		m.lossLimit = true
		m.log.Warn("daily loss limit hit, entries blocked until next trading day",
			zap.Float64("day_realized", m.dayRealized),
			zap.Float64("equity", m.equity))
	}

	m.log.Info("position closed",
		zap.String("symbol", pos.Symbol),
		zap.String("reason", string(reason)),
		zap.Float64("exit", pos.ExitPrice),
		zap.Float64("realized", realized))

	return Event{
		Kind:     EventClosed,
		Time:     sig.Time,
		Price:    sig.Price,
		Position: *pos,
		Reason:   detail,
		Realized: realized,
	}
}

// ResetDay clears the daily counters at a trading-day boundary. Open
// positions persist across days; only realized PnL and the loss flag reset.
// The mutex makes the reset exclusive with any in-flight transition.
func (m *Manager) ResetDay(day time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dayRealized = 0
	m.lossLimit = false
	m.log.Info("trading day reset", zap.String("day", day.Format("2006-01-02")))
}

// Snapshot returns a copy of the shared counters.
func (m *Manager) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return View{
		Equity:        m.equity,
		OpenPositions: len(m.positions),
		DayRealized:   m.dayRealized,
		LossLimitHit:  m.lossLimit,
	}
}

// Open returns a copy of the open position for the symbol, if any.
func (m *Manager) Open(symbol string) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos, ok := m.positions[symbol]; ok {
		return *pos, true
	}
	return Position{}, false
}

// OpenPositions returns copies of all open positions.
func (m *Manager) OpenPositions() []Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Position, 0, len(m.positions))
	for _, pos := range m.positions {
		out = append(out, *pos)
	}
	return out
}
