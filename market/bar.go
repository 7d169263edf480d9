// Package market defines the bar (OHLCV candle) model shared by the
// indicator, pattern, and portfolio packages.
package market

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBar marks a bar that failed validation: malformed prices or a
// timestamp that is not strictly after the previous bar for the symbol.
// Rejected bars leave all engine state untouched.
var ErrInvalidBar = errors.New("market: invalid bar")

// Bar is one closed OHLCV candle for a symbol.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the bar in isolation: positive prices, High/Low ordering,
// and a non-zero timestamp.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidBar)
	}
	if b.Time.IsZero() {
		return fmt.Errorf("%w: %s has zero timestamp", ErrInvalidBar, b.Symbol)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: %s has non-positive price", ErrInvalidBar, b.Symbol)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: %s high %.4f < low %.4f", ErrInvalidBar, b.Symbol, b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: %s negative volume", ErrInvalidBar, b.Symbol)
	}
	return nil
}

// ValidateAfter additionally enforces strict per-symbol monotonicity: the
// bar must be strictly newer than prev. Out-of-order bars are rejected, not
// reordered.
func (b Bar) ValidateAfter(prev time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if !prev.IsZero() && !b.Time.After(prev) {
		return fmt.Errorf("%w: %s bar at %s not after %s",
			ErrInvalidBar, b.Symbol, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
	}
	return nil
}

// Body returns the absolute candle body size.
func (b Bar) Body() float64 {
	body := b.Close - b.Open
	if body < 0 {
		return -body
	}
	return body
}

// Bullish reports whether the candle closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the candle closed below its open.
func (b Bar) Bearish() bool { return b.Close < b.Open }
