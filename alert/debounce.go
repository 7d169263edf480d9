// Package alert rate-limits outbound notifications and delivers them
// through a pluggable notifier.
package alert

import (
	"sync"
	"time"
)

// Kind labels an alert for debounce bookkeeping.
type Kind string

const (
	KindBuySignal  Kind = "BUY_SIGNAL"
	KindSellSignal Kind = "SELL_SIGNAL"
	KindOpened     Kind = "POSITION_OPENED"
	KindClosed     Kind = "POSITION_CLOSED"
	KindStopMoved  Kind = "STOP_ADJUSTED"
)

type key struct {
	symbol string
	kind   Kind
}

// Debouncer suppresses repeat alerts per (symbol, kind) inside the debounce
// window, and enforces a global cap on emissions in any trailing hour.
//
// Suppressed calls do not extend the window: lastSent updates only when an
// alert actually goes out.
type Debouncer struct {
	mu sync.Mutex

	window   time.Duration
	maxHour  int
	lastSent map[key]time.Time
	emitted  []time.Time // trailing-hour emissions, oldest first
}

// NewDebouncer creates a debouncer. maxPerHour <= 0 disables the global cap.
func NewDebouncer(window time.Duration, maxPerHour int) *Debouncer {
	return &Debouncer{
		window:   window,
		maxHour:  maxPerHour,
		lastSent: make(map[key]time.Time),
	}
}

// Gate reports whether an alert for (symbol, kind) may be emitted at now,
// and records the emission when allowed.
func (d *Debouncer) Gate(symbol string, kind Kind, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{symbol: symbol, kind: kind}
	if last, ok := d.lastSent[k]; ok && now.Sub(last) < d.window {
		return false
	}

	d.prune(now)
	if d.maxHour > 0 && len(d.emitted) >= d.maxHour {
		return false
	}

	d.lastSent[k] = now
	if d.maxHour > 0 {
		d.emitted = append(d.emitted, now)
	}
	return true
}

// prune drops emissions older than one hour. Caller holds the mutex.
func (d *Debouncer) prune(now time.Time) {
	cutoff := now.Add(-time.Hour)
	i := 0
	for i < len(d.emitted) && !d.emitted[i].After(cutoff) {
		i++
	}
	d.emitted = d.emitted[i:]
}

// Emitted returns the number of emissions in the trailing hour.
func (d *Debouncer) Emitted(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)
	return len(d.emitted)
}
