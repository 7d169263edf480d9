package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/signal"
)

type entry[T any] struct {
	value   T
	expires time.Time
}

// Memory is an in-process store used when Redis is not configured.
type Memory struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	snaps map[string]entry[indicators.Snapshot]
	sigs  map[string]entry[signal.Signal]
}

// NewMemory creates an in-memory store. ttl <= 0 defaults to 30 minutes.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		snaps: make(map[string]entry[indicators.Snapshot]),
		sigs:  make(map[string]entry[signal.Signal]),
	}
}

func (m *Memory) PutSnapshot(_ context.Context, snap indicators.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Symbol] = entry[indicators.Snapshot]{value: snap, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) GetSnapshot(_ context.Context, symbol string) (indicators.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.snaps[symbol]
	if !ok || m.now().After(e.expires) {
		return indicators.Snapshot{}, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) PutSignal(_ context.Context, sig signal.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sigs[sig.Symbol] = entry[signal.Signal]{value: sig, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) GetSignal(_ context.Context, symbol string) (signal.Signal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sigs[symbol]
	if !ok || m.now().After(e.expires) {
		return signal.Signal{}, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Close() error { return nil }
