package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnquant/watchtower/market"
)

func testParams() Params {
	return Params{
		RSIPeriod:    14,
		AFInit:       0.02,
		AFStep:       0.02,
		AFMax:        0.20,
		VolumePeriod: 20,
	}
}

func TestEngineWarmupThenReady(t *testing.T) {
	t.Parallel()

	eng := NewEngine(testParams())

	// 20 bars of rising closes: warm-up ends after 14 price changes, and a
	// steady uptrend must leave RSI above 50 with close above the stop.
	var snap Snapshot
	var err error
	for i := 0; i < 20; i++ {
		snap, err = eng.Update(barAt(i, 100+float64(i)))
		if i < 14 {
			assert.ErrorIs(t, err, ErrInsufficientHistory, "bar %d", i)
			assert.False(t, eng.Ready("ACB"))
		} else {
			assert.NoError(t, err, "bar %d", i)
			assert.True(t, eng.Ready("ACB"))
		}
	}

	assert.Greater(t, snap.RSI, 50.0)
	assert.Equal(t, TrendUp, snap.Trend)
	assert.Greater(t, snap.Close, snap.Stop)
	assert.InDelta(t, 10000.0, snap.AvgVolume, 1e-9)
}

func TestEngineRejectsOutOfOrderBars(t *testing.T) {
	t.Parallel()

	eng := NewEngine(testParams())

	_, err := eng.Update(barAt(5, 100))
	require.ErrorIs(t, err, ErrInsufficientHistory)
	last := eng.LastTime("ACB")

	// Same timestamp and an older one are both rejected; state unchanged.
	_, err = eng.Update(barAt(5, 101))
	assert.ErrorIs(t, err, market.ErrInvalidBar)
	_, err = eng.Update(barAt(3, 101))
	assert.ErrorIs(t, err, market.ErrInvalidBar)
	assert.Equal(t, last, eng.LastTime("ACB"))

	// The next strictly newer bar is accepted.
	_, err = eng.Update(barAt(6, 101))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.True(t, eng.LastTime("ACB").After(last))
}

func TestEngineRejectsMalformedBar(t *testing.T) {
	t.Parallel()

	eng := NewEngine(testParams())
	bad := barAt(0, 100)
	bad.Close = -1
	bad.Low = -1

	_, err := eng.Update(bad)
	assert.ErrorIs(t, err, market.ErrInvalidBar)
	assert.True(t, eng.LastTime("ACB").IsZero())
}

func TestEngineTracksSymbolsIndependently(t *testing.T) {
	t.Parallel()

	eng := NewEngine(Params{RSIPeriod: 2, AFInit: 0.02, AFStep: 0.02, AFMax: 0.2, VolumePeriod: 2})

	for i := 0; i < 5; i++ {
		b := barAt(i, 100+float64(i))
		_, _ = eng.Update(b)
	}
	assert.True(t, eng.Ready("ACB"))
	assert.False(t, eng.Ready("VNM"))
	assert.True(t, eng.LastTime("VNM").IsZero())

	other := barAt(0, 50)
	other.Symbol = "VNM"
	_, err := eng.Update(other)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestEngineSnapshotCarriesAudit(t *testing.T) {
	t.Parallel()

	eng := NewEngine(Params{RSIPeriod: 2, AFInit: 0.02, AFStep: 0.02, AFMax: 0.2, VolumePeriod: 2})
	var snap Snapshot
	for i := 0; i < 4; i++ {
		snap, _ = eng.Update(barAt(i, 100+float64(i)))
	}

	assert.Equal(t, "ACB", snap.Symbol)
	assert.Equal(t, 103.0, snap.Close)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC).Add(3*15*time.Minute), snap.Time)
	assert.InDelta(t, 0.02, snap.AF, 0.05)
}
