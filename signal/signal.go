// Package signal turns indicator snapshots and pattern events into
// directional trading signals.
package signal

import (
	"time"

	"github.com/vnquant/watchtower/indicators"
)

// Action is the direction of a signal.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Signal is one per-symbol, per-bar decision. Snapshot carries the
// contributing indicator values for audit.
type Signal struct {
	Symbol   string
	Time     time.Time
	Action   Action
	Price    float64
	Reason   string
	Snapshot indicators.Snapshot
}
