// Package feed sources OHLCV bars, either replayed from CSV files or
// streamed from a WebSocket bar server.
package feed

import (
	"context"

	"github.com/vnquant/watchtower/market"
)

// Feed streams bars into out until the source is exhausted or ctx is
// cancelled. Replay feeds return nil at end of input; live feeds block
// until cancellation.
type Feed interface {
	Run(ctx context.Context, out chan<- market.Bar) error
}
