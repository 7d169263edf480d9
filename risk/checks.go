package risk

import "fmt"

// Violation codes. These are policy decisions, not errors: a blocked entry
// degrades to HOLD and the pipeline moves on.
const (
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeDailyLossLimit   = "DAILY_LOSS_LIMIT"
	CodePositionExists   = "POSITION_EXISTS"
	CodeBadEntry         = "BAD_ENTRY"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of the entry gate.
type Decision struct {
	Allowed    bool
	Violations []Violation

	// Planned sizing when allowed.
	Shares     float64
	RiskBudget float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// EvaluateEntry gates a prospective OPEN transition against the policy and
// the current portfolio state, and plans the position size.
func EvaluateEntry(p Policy, entryPrice float64, port PortfolioSnapshot) Decision {
	d := Decision{Allowed: true}

	if entryPrice <= 0 {
		d.add(CodeBadEntry, "entry price must be positive")
		return d
	}

	if port.HasPosition {
		d.add(CodePositionExists, "symbol already has an open position")
	}
	if port.OpenPositions >= p.MaxPositions {
		d.add(CodeCapacityExceeded,
			fmt.Sprintf("open positions %d >= max %d", port.OpenPositions, p.MaxPositions))
	}
	if port.LossLimitHit {
		d.add(CodeDailyLossLimit,
			fmt.Sprintf("daily realized loss %.2f hit the %.1f%% limit",
				port.DayRealized, 100*p.MaxDailyLossPct))
	}

	if d.Allowed {
		d.RiskBudget = RiskBudget(port.Equity, p.PositionSizePct)
		d.Shares = Shares(d.RiskBudget, entryPrice)
		if d.Shares <= 0 {
			d.add(CodeBadEntry, "equity too small for a single share")
		}
	}

	return d
}

// DailyLossBreached reports whether cumulative realized day loss has
// reached the circuit-breaker threshold.
func DailyLossBreached(p Policy, dayRealized, equity float64) bool {
	if equity <= 0 {
		return false
	}
	return dayRealized <= -p.MaxDailyLossPct*equity
}
