// Package journal persists signals, position lifecycle events, closed
// trades, and equity snapshots for later review.
package journal

import "time"

// SignalRecord is one evaluated, actionable signal.
type SignalRecord struct {
	ID     string
	Symbol string
	Time   time.Time
	Action string
	Price  float64
	RSI    float64
	Stop   float64
	Reason string
}

// PositionEventRecord is one lifecycle transition of a position.
type PositionEventRecord struct {
	PositionID string
	Symbol     string
	Time       time.Time
	Kind       string
	Price      float64
	Stop       float64
	Detail     string
}

// TradeRecord is one closed position, entry to exit.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Shares     float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot captures portfolio state at a point in time.
type EquitySnapshot struct {
	Time          time.Time
	Equity        float64
	OpenPositions int
	DayRealized   float64
}

type Journal interface {
	RecordSignal(SignalRecord) error
	RecordPositionEvent(PositionEventRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
