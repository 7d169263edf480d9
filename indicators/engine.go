package indicators

import (
	"errors"
	"time"

	"github.com/vnquant/watchtower/market"
)

// ErrInsufficientHistory is returned by Engine.Update while a symbol is
// still warming up. The bar has been folded into indicator state; callers
// must treat the result as HOLD, not as a failure to surface.
var ErrInsufficientHistory = errors.New("indicators: insufficient history")

// Snapshot is the indicator view of a symbol after one bar, attached to
// signals for audit.
type Snapshot struct {
	Symbol string
	Time   time.Time
	Close  float64
	Volume float64

	RSI       float64
	Stop      float64 // parabolic stop value
	Trend     Trend
	AF        float64
	AvgVolume float64
}

// Params configures the per-symbol indicator set.
type Params struct {
	RSIPeriod    int
	AFInit       float64
	AFStep       float64
	AFMax        float64
	VolumePeriod int
}

// symbolState holds the indicator set owned by one symbol. It is created on
// the first bar and never destroyed during a run.
type symbolState struct {
	rsi  *RSI
	psar *PSAR
	vol  *VolumeSMA
	last time.Time
}

// Engine maintains streaming indicator state per symbol.
//
// Engine is not internally synchronized: the pipeline serializes all bars
// for a symbol onto one worker, and an Engine instance is owned by exactly
// one worker.
type Engine struct {
	params  Params
	symbols map[string]*symbolState
}

// NewEngine creates an indicator engine for the given parameters.
func NewEngine(params Params) *Engine {
	return &Engine{
		params:  params,
		symbols: make(map[string]*symbolState),
	}
}

// Update folds one bar into the symbol's indicator state and returns the
// resulting snapshot.
//
// A bar that fails validation or breaks timestamp monotonicity returns
// market.ErrInvalidBar and leaves all state untouched. During warm-up the
// state still updates but the error is ErrInsufficientHistory.
func (e *Engine) Update(b market.Bar) (Snapshot, error) {
	st := e.symbols[b.Symbol]

	var last time.Time
	if st != nil {
		last = st.last
	}
	if err := b.ValidateAfter(last); err != nil {
		return Snapshot{}, err
	}

	if st == nil {
		st = &symbolState{
			rsi:  NewRSI(e.params.RSIPeriod),
			psar: NewPSAR(e.params.AFInit, e.params.AFStep, e.params.AFMax),
			vol:  NewVolumeSMA(e.params.VolumePeriod),
		}
		e.symbols[b.Symbol] = st
	}

	st.rsi.Update(b)
	st.psar.Update(b)
	st.vol.Update(b)
	st.last = b.Time

	snap := Snapshot{
		Symbol:    b.Symbol,
		Time:      b.Time,
		Close:     b.Close,
		Volume:    b.Volume,
		RSI:       st.rsi.Value(),
		Stop:      st.psar.Value(),
		Trend:     st.psar.Direction(),
		AF:        st.psar.AF(),
		AvgVolume: st.vol.Value(),
	}

	if !st.rsi.Ready() || !st.psar.Ready() {
		return snap, ErrInsufficientHistory
	}
	return snap, nil
}

// Ready reports whether the symbol has completed warm-up.
func (e *Engine) Ready(symbol string) bool {
	st, ok := e.symbols[symbol]
	return ok && st.rsi.Ready() && st.psar.Ready()
}

// LastTime returns the timestamp of the most recent accepted bar for the
// symbol, or the zero time if none.
func (e *Engine) LastTime(symbol string) time.Time {
	if st, ok := e.symbols[symbol]; ok {
		return st.last
	}
	return time.Time{}
}
