// Package cache keeps the latest indicator snapshot and signal per symbol
// so dashboards and restarts do not wait for warm-up to observe state.
package cache

import (
	"context"

	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/signal"
)

// Store holds the most recent snapshot and signal per symbol. Entries
// expire after the store's TTL.
type Store interface {
	PutSnapshot(ctx context.Context, snap indicators.Snapshot) error
	GetSnapshot(ctx context.Context, symbol string) (indicators.Snapshot, bool, error)
	PutSignal(ctx context.Context, sig signal.Signal) error
	GetSignal(ctx context.Context, symbol string) (signal.Signal, bool, error)
	Close() error
}
