// Package portfolio owns the per-symbol position state machine and the
// shared portfolio counters (open count, daily realized loss).
package portfolio

import (
	"time"
)

// Status is the lifecycle stage of a position. NONE and CLOSED are
// equivalent re-entrant start states: a closed position frees its symbol.
type Status int

const (
	StatusOpen Status = iota + 1
	StatusTrailing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusTrailing:
		return "TRAILING"
	case StatusClosed:
		return "CLOSED"
	default:
		return "NONE"
	}
}

// CloseReason records which exit condition fired.
type CloseReason string

const (
	ReasonStopLoss     CloseReason = "STOP_LOSS"
	ReasonTakeProfit   CloseReason = "TAKE_PROFIT"
	ReasonTrailingStop CloseReason = "TRAILING_STOP"
	ReasonSignalExit   CloseReason = "SIGNAL_EXIT"
)

// Position is one long position. It is owned exclusively by the Manager
// and mutated only through the state machine.
type Position struct {
	ID     string
	Symbol string
	Status Status

	EntryPrice float64
	EntryTime  time.Time
	Shares     float64

	StopLoss   float64 // static, entry*(1-stop_loss_pct)
	TakeProfit float64 // static, entry*(1+take_profit_pct)

	// TrailingStop is set when the position enters TRAILING and only ever
	// rises afterwards.
	TrailingStop float64

	ExitPrice   float64
	ExitTime    time.Time
	CloseReason CloseReason
}

// UnrealizedPnL is the open profit at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Shares
}

// GainPct is the fractional gain from entry at the given price.
func (p *Position) GainPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}

// EventKind classifies a lifecycle event emitted by the Manager.
type EventKind int

const (
	EventOpened EventKind = iota + 1
	EventClosed
	EventStopAdjusted // trailing armed or raised
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "OPENED"
	case EventClosed:
		return "CLOSED"
	case EventStopAdjusted:
		return "STOP_ADJUSTED"
	default:
		return "UNKNOWN"
	}
}

// Event is a position lifecycle event. Position is a copy taken at emission
// time, safe to hand to journal and alert collaborators.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Price    float64
	Position Position
	Reason   string
	Realized float64 // realized PnL, set on EventClosed
}
