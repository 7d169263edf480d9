package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/signal"
)

func TestMemorySnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Minute)
	ctx := context.Background()

	snap := indicators.Snapshot{
		Symbol: "ACB",
		Time:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Close:  100.5,
		RSI:    61.2,
		Stop:   98.7,
	}
	require.NoError(t, m.PutSnapshot(ctx, snap))

	got, ok, err := m.GetSnapshot(ctx, "ACB")
	assert.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	_, ok, err = m.GetSnapshot(ctx, "VNM")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySignalRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Minute)
	ctx := context.Background()

	sig := signal.Signal{
		Symbol: "ACB",
		Time:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Action: signal.Buy,
		Price:  100.5,
		Reason: "close > PSAR",
	}
	require.NoError(t, m.PutSignal(ctx, sig))

	got, ok, err := m.GetSignal(ctx, "ACB")
	assert.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sig, got)
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Minute)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, m.PutSnapshot(ctx, indicators.Snapshot{Symbol: "ACB", Close: 100}))

	now = base.Add(59 * time.Second)
	_, ok, _ := m.GetSnapshot(ctx, "ACB")
	assert.True(t, ok, "inside TTL")

	now = base.Add(61 * time.Second)
	_, ok, _ = m.GetSnapshot(ctx, "ACB")
	assert.False(t, ok, "expired")
}

func TestMemoryLatestWins(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.PutSnapshot(ctx, indicators.Snapshot{Symbol: "ACB", Close: 100}))
	require.NoError(t, m.PutSnapshot(ctx, indicators.Snapshot{Symbol: "ACB", Close: 101}))

	got, ok, _ := m.GetSnapshot(ctx, "ACB")
	require.True(t, ok)
	assert.InDelta(t, 101.0, got.Close, 1e-9)
}
