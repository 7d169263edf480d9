// Package pattern detects short candlestick reversal patterns over a
// trailing window of bars.
package pattern

import (
	"time"

	"github.com/vnquant/watchtower/market"
)

// Kind identifies a detected candle pattern.
type Kind int

const (
	BullishEngulf Kind = iota + 1
	BearishEngulf
)

func (k Kind) String() string {
	switch k {
	case BullishEngulf:
		return "BULLISH_ENGULF"
	case BearishEngulf:
		return "BEARISH_ENGULF"
	default:
		return "NONE"
	}
}

// Event is a detected pattern. Age counts bars since the pattern completed:
// 0 means it completed on the most recent bar. An event is usable by the
// evaluator only while Age <= the configured detection window.
type Event struct {
	Symbol string
	Time   time.Time
	Kind   Kind
	Age    int
}

// Detector scans for bullish/bearish engulfing candles. It is stateless per
// call: detection runs over the bars the caller supplies.
type Detector struct {
	window       int     // how many trailing bars to inspect
	minBodyRatio float64 // current body must be >= ratio * prior body
}

// NewDetector creates an engulfing detector. window is the number of
// trailing bars inspected (and the maximum usable event age); minBodyRatio
// gates out doji-sized engulfings.
func NewDetector(window int, minBodyRatio float64) *Detector {
	if window < 1 {
		window = 1
	}
	return &Detector{window: window, minBodyRatio: minBodyRatio}
}

// Window returns the detection window in bars.
func (d *Detector) Window() int { return d.window }

// Scan inspects the last window bars of recent (which must end at the
// current bar) and returns the most recent engulfing with its age, or
// ok=false when none qualifies. At least two bars are required.
func (d *Detector) Scan(recent []market.Bar) (Event, bool) {
	if len(recent) < 2 {
		return Event{}, false
	}

	// Walk newest-first so the freshest pattern wins.
	last := len(recent) - 1
	oldest := last - d.window
	if oldest < 0 {
		oldest = 0
	}
	for i := last; i > oldest; i-- {
		kind, ok := classify(recent[i-1], recent[i], d.minBodyRatio)
		if !ok {
			continue
		}
		return Event{
			Symbol: recent[i].Symbol,
			Time:   recent[i].Time,
			Kind:   kind,
			Age:    last - i,
		}, true
	}
	return Event{}, false
}

// classify checks a single candle pair for an engulfing.
func classify(prev, cur market.Bar, minBodyRatio float64) (Kind, bool) {
	if cur.Body() < minBodyRatio*prev.Body() {
		return 0, false
	}

	// Bullish: prior bearish candle whose body is fully covered by a
	// bullish candle opening below its close and closing above its open.
	if prev.Bearish() && cur.Bullish() &&
		cur.Close > prev.Open && cur.Open < prev.Close {
		return BullishEngulf, true
	}

	// Bearish is the mirror.
	if prev.Bullish() && cur.Bearish() &&
		cur.Close < prev.Open && cur.Open > prev.Close {
		return BearishEngulf, true
	}

	return 0, false
}
