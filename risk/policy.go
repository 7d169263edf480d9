// Package risk holds the position-risk policy: exit thresholds, sizing,
// and the entry gate that enforces exposure caps.
package risk

// Policy is the immutable risk parameter set, constructed once from
// configuration and passed down. All percentages are fractions (0.08 = 8%).
type Policy struct {
	// Exit thresholds relative to entry price.
	TakeProfitPct float64 // close at entry*(1+pct)
	StopLossPct   float64 // close at entry*(1-pct)

	// Trailing stop: armed once unrealized gain reaches TrailingArmPct,
	// then trails TrailingStopPct below the peak.
	TrailingArmPct  float64
	TrailingStopPct float64

	// Sizing and exposure limits.
	PositionSizePct float64 // fraction of equity risked per trade
	MaxPositions    int
	MaxDailyLossPct float64 // daily realized-loss circuit breaker
}

// PortfolioSnapshot is the cross-symbol state the entry gate inspects.
type PortfolioSnapshot struct {
	Equity        float64
	OpenPositions int
	DayRealized   float64
	LossLimitHit  bool
	HasPosition   bool // an open position already exists for this symbol
}
