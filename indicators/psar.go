package indicators

import (
	"fmt"

	"github.com/vnquant/watchtower/market"
)

// Trend is the direction the parabolic stop is tracking.
type Trend int

const (
	TrendUp Trend = iota + 1
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "UP"
	case TrendDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// PSAR is a streaming parabolic stop-and-reverse.
//
// The stop extrapolates toward price by af*(extreme-stop) each bar. The
// acceleration factor grows by afStep (capped at afMax) whenever the trend
// makes a new extreme, and resets to afInit on reversal. A reversal happens
// when the close crosses the current stop; the stop then restarts from the
// prior extreme and the extreme restarts at the crossing bar's high/low.
//
// State carries indefinitely; the value cannot be derived from any fixed
// window of bars.
type PSAR struct {
	afInit float64
	afStep float64
	afMax  float64

	seeded  bool
	started bool
	first   market.Bar
	prev    market.Bar

	trend   Trend
	stop    float64
	extreme float64
	af      float64
}

// NewPSAR creates a streaming parabolic SAR with the classic parameters
// (typically 0.02 / 0.02 / 0.20).
func NewPSAR(afInit, afStep, afMax float64) *PSAR {
	return &PSAR{afInit: afInit, afStep: afStep, afMax: afMax}
}

func (p *PSAR) Name() string {
	return fmt.Sprintf("PSAR(%.2f,%.2f)", p.afInit, p.afMax)
}

// Warmup is two bars: the first seeds the initial direction.
func (p *PSAR) Warmup() int { return 2 }

func (p *PSAR) Reset() {
	p.seeded = false
	p.started = false
	p.first = market.Bar{}
	p.trend = 0
	p.stop = 0
	p.extreme = 0
	p.af = 0
}

func (p *PSAR) Update(b market.Bar) {
	switch {
	case !p.seeded:
		p.first = b
		p.seeded = true
	case !p.started:
		p.start(b)
	default:
		p.step(b)
	}
	p.prev = b
}

// start establishes the initial trend from the first two bars.
func (p *PSAR) start(b market.Bar) {
	if b.Close >= p.first.Close {
		p.trend = TrendUp
		p.stop = min(p.first.Low, b.Low)
		p.extreme = max(p.first.High, b.High)
	} else {
		p.trend = TrendDown
		p.stop = max(p.first.High, b.High)
		p.extreme = min(p.first.Low, b.Low)
	}
	p.af = p.afInit
	p.started = true
}

// step applies the recurrence for one bar.
func (p *PSAR) step(b market.Bar) {
	p.stop += p.af * (p.extreme - p.stop)

	if p.trend == TrendUp {
		if b.Close < p.stop {
			p.reverse(TrendDown, b)
			return
		}
		// The stop may not rise into the previous bar's range.
		if p.stop > p.prev.Low {
			p.stop = p.prev.Low
		}
		if b.High > p.extreme {
			p.extreme = b.High
			p.accelerate()
		}
		return
	}

	if b.Close > p.stop {
		p.reverse(TrendUp, b)
		return
	}
	if p.stop < p.prev.High {
		p.stop = p.prev.High
	}
	if b.Low < p.extreme {
		p.extreme = b.Low
		p.accelerate()
	}
}

// reverse flips direction: the stop restarts from the prior extreme and the
// extreme restarts at the crossing bar's high/low.
func (p *PSAR) reverse(to Trend, b market.Bar) {
	p.stop = p.extreme
	if to == TrendUp {
		p.extreme = b.High
	} else {
		p.extreme = b.Low
	}
	p.trend = to
	p.af = p.afInit
}

func (p *PSAR) accelerate() {
	p.af += p.afStep
	if p.af > p.afMax {
		p.af = p.afMax
	}
}

func (p *PSAR) Ready() bool { return p.started }

// Value returns the current stop level.
func (p *PSAR) Value() float64 {
	if !p.started {
		return 0
	}
	return p.stop
}

// Direction returns the current trend, or 0 before warmup.
func (p *PSAR) Direction() Trend { return p.trend }

// AF returns the current acceleration factor.
func (p *PSAR) AF() float64 { return p.af }

// Extreme returns the extreme point of the current trend.
func (p *PSAR) Extreme() float64 { return p.extreme }
