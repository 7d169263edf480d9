package signal

import (
	"fmt"
	"strings"

	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/pattern"
)

// Evaluator applies the composite entry/exit rule:
//
//	BUY  = close > parabolic stop AND RSI > neutral
//	       AND volume > average volume       (optional)
//	       AND bullish engulfing within age  (optional)
//	SELL = RSI < neutral OR bearish engulfing
//
// SELL is evaluated independently of BUY and wins ties: a position is never
// opened on a bar that also signals exit.
type Evaluator struct {
	rsiNeutral     float64
	requireVolume  bool
	requirePattern bool
	maxPatternAge  int
}

// Options configures the evaluator. Zero RSINeutral defaults to 50.
type Options struct {
	RSINeutral     float64
	RequireVolume  bool
	RequirePattern bool
	MaxPatternAge  int
}

// NewEvaluator creates an evaluator with the given options.
func NewEvaluator(opts Options) *Evaluator {
	if opts.RSINeutral == 0 {
		opts.RSINeutral = 50
	}
	return &Evaluator{
		rsiNeutral:     opts.RSINeutral,
		requireVolume:  opts.RequireVolume,
		requirePattern: opts.RequirePattern,
		maxPatternAge:  opts.MaxPatternAge,
	}
}

// Evaluate produces the signal for one bar. ev is nil when no pattern was
// detected. Warm-up is the caller's concern: snapshots are only passed in
// once the indicator engine stops returning ErrInsufficientHistory.
func (e *Evaluator) Evaluate(snap indicators.Snapshot, ev *pattern.Event) Signal {
	sig := Signal{
		Symbol:   snap.Symbol,
		Time:     snap.Time,
		Action:   Hold,
		Price:    snap.Close,
		Snapshot: snap,
	}

	if reason, ok := e.sellConditions(snap, ev); ok {
		sig.Action = Sell
		sig.Reason = reason
		return sig
	}
	if reason, ok := e.buyConditions(snap, ev); ok {
		sig.Action = Buy
		sig.Reason = reason
		return sig
	}
	return sig
}

func (e *Evaluator) buyConditions(snap indicators.Snapshot, ev *pattern.Event) (string, bool) {
	if snap.Close <= snap.Stop || snap.RSI <= e.rsiNeutral {
		return "", false
	}
	reasons := []string{
		"close > PSAR",
		fmt.Sprintf("RSI %.1f > %.0f", snap.RSI, e.rsiNeutral),
	}

	if e.requireVolume {
		if snap.AvgVolume <= 0 || snap.Volume <= snap.AvgVolume {
			return "", false
		}
		reasons = append(reasons, "volume above average")
	}

	if e.requirePattern {
		if ev == nil || ev.Kind != pattern.BullishEngulf || ev.Age > e.maxPatternAge {
			return "", false
		}
		reasons = append(reasons, fmt.Sprintf("bullish engulfing %d bars ago", ev.Age))
	}

	return strings.Join(reasons, ", "), true
}

func (e *Evaluator) sellConditions(snap indicators.Snapshot, ev *pattern.Event) (string, bool) {
	var reasons []string
	if snap.RSI < e.rsiNeutral {
		reasons = append(reasons, fmt.Sprintf("RSI %.1f < %.0f", snap.RSI, e.rsiNeutral))
	}
	if ev != nil && ev.Kind == pattern.BearishEngulf && ev.Age <= e.maxPatternAge {
		reasons = append(reasons, fmt.Sprintf("bearish engulfing %d bars ago", ev.Age))
	}
	if len(reasons) == 0 {
		return "", false
	}
	return strings.Join(reasons, ", "), true
}
