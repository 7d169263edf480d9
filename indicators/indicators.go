// Package indicators provides streaming technical indicators and the
// per-symbol engine that feeds signal evaluation.
package indicators

import "github.com/vnquant/watchtower/market"

// Indicator computes a single streaming value from bars.
// Implementations are deterministic and safe to use in live and replay runs.
type Indicator interface {
	// Name returns a stable identifier like "RSI(14)" or "PSAR(0.02,0.20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether the value is meaningful (warmup completed).
	Ready() bool
}

// ValueF64 is implemented by indicators that expose a float value.
// If !Ready(), Value() returns 0; callers should always check Ready().
type ValueF64 interface {
	Value() float64
}
