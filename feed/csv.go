package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vnquant/watchtower/market"
)

// CSV replays bars from a file with the header
// symbol,time,open,high,low,close,volume. Time is RFC 3339. Malformed
// rows are logged and skipped.
type CSV struct {
	path string
	log  *zap.Logger
}

func NewCSV(path string, log *zap.Logger) *CSV {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSV{path: path, log: log}
}

func (c *CSV) Run(ctx context.Context, out chan<- market.Bar) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	// Header row.
	if _, err := r.Read(); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	line := 1
	for {
		line++
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			c.log.Warn("bad csv row", zap.Int("line", line), zap.Error(err))
			continue
		}

		bar, err := parseRow(rec)
		if err != nil {
			c.log.Warn("bad csv row", zap.Int("line", line), zap.Error(err))
			continue
		}

		select {
		case out <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func parseRow(rec []string) (market.Bar, error) {
	if len(rec) != 7 {
		return market.Bar{}, fmt.Errorf("want 7 fields, got %d", len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	ts, err := time.Parse(time.RFC3339, rec[1])
	if err != nil {
		return market.Bar{}, fmt.Errorf("time: %w", err)
	}

	vals := make([]float64, 5)
	for i, s := range rec[2:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("field %d: %w", i+2, err)
		}
		vals[i] = v
	}

	return market.Bar{
		Symbol: rec[0],
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
