package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vnquant/watchtower/alert"
	"github.com/vnquant/watchtower/cache"
	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/journal"
	"github.com/vnquant/watchtower/market"
	"github.com/vnquant/watchtower/metrics"
	"github.com/vnquant/watchtower/pattern"
	"github.com/vnquant/watchtower/portfolio"
	"github.com/vnquant/watchtower/risk"
	"github.com/vnquant/watchtower/signal"
)

var day1 = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

func testPolicy() risk.Policy {
	return risk.Policy{
		TakeProfitPct:   0.15,
		StopLossPct:     0.08,
		TrailingArmPct:  0.09,
		TrailingStopPct: 0.03,
		PositionSizePct: 0.02,
		MaxPositions:    10,
		MaxDailyLossPct: 0.05,
	}
}

func testConfig() Config {
	return Config{
		Workers: 2,
		Indicators: indicators.Params{
			RSIPeriod:    3,
			AFInit:       0.02,
			AFStep:       0.02,
			AFMax:        0.20,
			VolumePeriod: 3,
		},
	}
}

// barAt builds a bullish 15-minute bar with the given close.
func barAt(symbol string, i int, close float64) market.Bar {
	return market.Bar{
		Symbol: symbol,
		Time:   day1.Add(time.Duration(i) * 15 * time.Minute),
		Open:   close - 0.5,
		High:   close + 0.5,
		Low:    close - 1,
		Close:  close,
		Volume: 100000,
	}
}

type captureNotifier struct {
	mu       sync.Mutex
	payloads []alert.Payload
}

func (c *captureNotifier) Notify(p alert.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, p)
	return nil
}

func (c *captureNotifier) kinds() map[alert.Kind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[alert.Kind]int{}
	for _, p := range c.payloads {
		out[p.Kind]++
	}
	return out
}

func runBars(t *testing.T, e *Engine, bars []market.Bar) {
	t.Helper()

	in := make(chan market.Bar, len(bars))
	for _, b := range bars {
		in <- b
	}
	close(in)
	require.NoError(t, e.Run(context.Background(), in))
}

func TestPipelineOpensAndStopsOut(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	store := cache.NewMemory(time.Hour)
	sink := &captureNotifier{}
	disp := alert.NewDispatcher(alert.NewDebouncer(time.Minute, 0), sink, zap.NewNop())
	m := metrics.New(prometheus.NewRegistry())
	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)

	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
		Journal: j,
		Cache:   store,
		Alerts:  disp,
		Metrics: m,
	})

	// Three warm-up bars, then rising closes trigger a BUY at 103. The
	// crash bar at 90 is under the 92 stop (entry 103, 8% stop = 94.76).
	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 104, 105, 106, 107, 90} {
		bars = append(bars, barAt("ACB", i, close))
	}
	runBars(t, e, bars)

	// Position opened at 103 and stopped out on the crash bar.
	view := mgr.Snapshot()
	assert.Equal(t, 0, view.OpenPositions)
	shares := 194.0 // floor(1,000,000 * 2% / 103)
	assert.InDelta(t, 1_000_000+(90-103)*shares, view.Equity, 1e-6)

	// Journal has the trade with its close reason.
	trades, err := j.ListTrades("ACB", day1, day1.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "STOP_LOSS", trades[0].Reason)
	assert.InDelta(t, 103.0, trades[0].EntryPrice, 1e-9)
	assert.InDelta(t, 90.0, trades[0].ExitPrice, 1e-9)

	// Lifecycle journaled under the position's id.
	events, err := j.ListPositionEvents(trades[0].TradeID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "OPENED", events[0].Kind)
	assert.Equal(t, "CLOSED", events[len(events)-1].Kind)

	// Cache holds the latest snapshot.
	snap, ok, err := store.GetSnapshot(context.Background(), "ACB")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 90.0, snap.Close, 1e-9)

	// Alerts went out for the entry and both ends of the position.
	kinds := sink.kinds()
	assert.GreaterOrEqual(t, kinds[alert.KindBuySignal], 1)
	assert.Equal(t, 1, kinds[alert.KindOpened])
	assert.Equal(t, 1, kinds[alert.KindClosed])

	assert.InDelta(t, 9.0, testutil.ToFloat64(m.BarsTotal), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.PositionsOpened), 1e-9)
}

func TestPipelineRejectsOutOfOrderBar(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
		Metrics: m,
	})

	bars := []market.Bar{
		barAt("ACB", 0, 100),
		barAt("ACB", 1, 101),
		barAt("ACB", 0, 102), // duplicate timestamp, rejected
		barAt("ACB", 2, 102),
	}
	runBars(t, e, bars)

	assert.InDelta(t, 3.0, testutil.ToFloat64(m.BarsTotal), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.BarsRejected.WithLabelValues("invalid")), 1e-9)
}

func TestPipelineDayBoundaryResetsCounters(t *testing.T) {
	t.Parallel()

	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
	})

	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 104, 90} {
		bars = append(bars, barAt("ACB", i, close))
	}
	// First bar of the next trading day.
	next := barAt("ACB", 0, 91)
	next.Time = day1.Add(24 * time.Hour)
	bars = append(bars, next)

	runBars(t, e, bars)

	view := mgr.Snapshot()
	assert.Equal(t, 0.0, view.DayRealized, "day counters reset at the boundary")
	assert.Less(t, view.Equity, 1_000_000.0, "the loss itself persists in equity")
}

// Regression: a malformed bar stamped on the next day must not advance
// the trading day. The daily-loss circuit breaker stays latched until a
// valid bar actually crosses the boundary.
func TestPipelineRejectedBarKeepsLossLimit(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.PositionSizePct = 0.5
	mgr := portfolio.NewManager(policy, 10_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
	})

	// Entry at 103 with half the equity; the stop-out at 90 loses more
	// than 5% of equity and trips the daily loss limit.
	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 90} {
		bars = append(bars, barAt("ACB", i, close))
	}
	bad := barAt("ACB", 0, -5)
	bad.Time = day1.Add(24 * time.Hour)
	bars = append(bars, bad)

	runBars(t, e, bars)

	view := mgr.Snapshot()
	assert.True(t, view.LossLimitHit, "rejected bar must not clear the loss flag")
	assert.Less(t, view.DayRealized, 0.0, "rejected bar must not reset day counters")
}

// The trading day rolls at midnight in the exchange timezone, not UTC.
func TestPipelineDayBoundaryUsesExchangeTimezone(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Location = loc

	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(cfg, Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
	})

	// day1 is 16:15 in Ho Chi Minh, so the loss lands late in the local
	// evening.
	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 104, 90} {
		bars = append(bars, barAt("ACB", i, close))
	}
	// 17:30 UTC is still March 2 in UTC but 00:30 March 3 locally.
	next := barAt("ACB", 0, 91)
	next.Time = time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)
	bars = append(bars, next)

	runBars(t, e, bars)

	view := mgr.Snapshot()
	assert.Equal(t, 0.0, view.DayRealized, "local midnight resets the day")
	assert.Less(t, view.Equity, 1_000_000.0)
}

func TestPipelineSymbolsAreIndependent(t *testing.T) {
	t.Parallel()

	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
	})

	// Interleave two symbols; both warm up and BUY.
	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 104} {
		bars = append(bars, barAt("ACB", i, close))
		bars = append(bars, barAt("VNM", i, close*0.5))
	}
	runBars(t, e, bars)

	view := mgr.Snapshot()
	assert.Equal(t, 2, view.OpenPositions)
	_, ok := mgr.Open("ACB")
	assert.True(t, ok)
	_, ok = mgr.Open("VNM")
	assert.True(t, ok)
}

func TestPipelineCancellation(t *testing.T) {
	t.Parallel()

	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
	})

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan market.Bar)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, in) }()

	in <- barAt("ACB", 0, 100)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
}

// Regression: a SELL on the same bar that gaps through the stop must
// produce exactly one close, attributed to the stop.
func TestPipelineStopBeatsSellSignal(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	mgr := portfolio.NewManager(testPolicy(), 1_000_000, nil)
	e := New(testConfig(), Deps{
		Manager: mgr,
		Detect:  pattern.NewDetector(2, 0.5),
		Journal: j,
	})

	// The crash bar drops RSI under 50 (SELL) and gaps under the stop.
	var bars []market.Bar
	for i, close := range []float64{100, 101, 102, 103, 80} {
		bars = append(bars, barAt("ACB", i, close))
	}
	runBars(t, e, bars)

	trades, err := j.ListTrades("ACB", day1, day1.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "STOP_LOSS", trades[0].Reason)

	// The SELL signal itself is still journaled.
	sigs, err := j.ListSignals("ACB", day1, day1.Add(24*time.Hour))
	require.NoError(t, err)
	var sells int
	for _, s := range sigs {
		if s.Action == signal.Sell.String() {
			sells++
		}
	}
	assert.Equal(t, 1, sells)
}
