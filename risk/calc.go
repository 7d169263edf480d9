package risk

import "math"

// RiskBudget is the capital committed to one trade: a fixed fraction of
// current equity.
func RiskBudget(equity, positionSizePct float64) float64 {
	if equity <= 0 || positionSizePct <= 0 {
		return 0
	}
	return equity * positionSizePct
}

// Shares converts a risk budget into a whole number of shares at the entry
// price.
func Shares(budget, entryPrice float64) float64 {
	if budget <= 0 || entryPrice <= 0 {
		return 0
	}
	return math.Floor(budget / entryPrice)
}

// StopLossPrice returns the static stop for a long entry.
func StopLossPrice(entry float64, p Policy) float64 {
	return entry * (1 - p.StopLossPct)
}

// TakeProfitPrice returns the static target for a long entry.
func TakeProfitPrice(entry float64, p Policy) float64 {
	return entry * (1 + p.TakeProfitPct)
}

// TrailingStopPrice trails a fixed fraction below the peak price.
func TrailingStopPrice(peak float64, p Policy) float64 {
	return peak * (1 - p.TrailingStopPct)
}
