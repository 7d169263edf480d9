package indicators

import (
	"fmt"

	"github.com/vnquant/watchtower/market"
)

// RSI is a streaming Relative Strength Index using Wilder smoothing.
//
// The first `period` price changes accumulate simple averages; after that
// each change is folded in with avg = (avg*(period-1) + x) / period. The
// value is always in [0,100] once Ready.
type RSI struct {
	period int

	prevClose float64
	havePrev  bool

	avgGain float64
	avgLoss float64
	changes int // price changes consumed so far
}

// NewRSI creates a streaming RSI with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

// Warmup is period+1 bars: the first bar only establishes prevClose.
func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.prevClose = 0
	r.havePrev = false
	r.avgGain = 0
	r.avgLoss = 0
	r.changes = 0
}

func (r *RSI) Update(b market.Bar) {
	if !r.havePrev {
		r.prevClose = b.Close
		r.havePrev = true
		return
	}

	change := b.Close - r.prevClose
	r.prevClose = b.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++
	n := float64(r.period)
	if r.changes <= r.period {
		// Simple average while seeding.
		r.avgGain += gain / n
		r.avgLoss += loss / n
		return
	}

	r.avgGain = (r.avgGain*(n-1) + gain) / n
	r.avgLoss = (r.avgLoss*(n-1) + loss) / n
}

func (r *RSI) Ready() bool {
	return r.changes >= r.period
}

// Value returns the RSI in [0,100]. When average loss is zero the index
// saturates at 100.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
