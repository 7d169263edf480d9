// Package wire assembles the pipeline from configuration. Both the live
// and replay commands build the same stack and differ only in feed and
// notifier.
package wire

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vnquant/watchtower/alert"
	"github.com/vnquant/watchtower/cache"
	"github.com/vnquant/watchtower/config"
	"github.com/vnquant/watchtower/engine"
	"github.com/vnquant/watchtower/feed"
	"github.com/vnquant/watchtower/indicators"
	cliconfig "github.com/vnquant/watchtower/internal/cli/config"
	"github.com/vnquant/watchtower/journal"
	"github.com/vnquant/watchtower/logging"
	"github.com/vnquant/watchtower/market"
	"github.com/vnquant/watchtower/metrics"
	"github.com/vnquant/watchtower/pattern"
	"github.com/vnquant/watchtower/portfolio"
	"github.com/vnquant/watchtower/risk"
	"github.com/vnquant/watchtower/signal"
)

// Load resolves configuration and the logger from the root flags.
func Load(rc *cliconfig.RootConfig) (*config.Config, *zap.Logger, error) {
	var cfg *config.Config
	if rc.ConfigPath != "" {
		loaded, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if rc.DBPath != "" {
		cfg.Journal.DBPath = rc.DBPath
	}

	log, err := logging.New("watchtower", rc.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// Pipeline is the assembled stack.
type Pipeline struct {
	Cfg     *config.Config
	Log     *zap.Logger
	Journal *journal.SQLite
	Cache   cache.Store
	Manager *portfolio.Manager
	Engine  *engine.Engine
}

// Build wires the pipeline around the given notifier.
func Build(cfg *config.Config, log *zap.Logger, notifier alert.Notifier) (*Pipeline, error) {
	loc, err := cfg.ParseLocation()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	ttl, _ := cfg.Cache.ParseTTL()
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		store, err = cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      ttl,
		})
		if err != nil {
			j.Close()
			return nil, err
		}
	} else {
		store = cache.NewMemory(ttl)
	}

	window, _ := cfg.Alert.ParseDebounceWindow()
	dispatcher := alert.NewDispatcher(
		alert.NewDebouncer(window, cfg.Alert.MaxAlertsPerHour),
		notifier,
		log,
	)

	manager := portfolio.NewManager(risk.Policy{
		TakeProfitPct:   cfg.Risk.TakeProfitPct,
		StopLossPct:     cfg.Risk.StopLossPct,
		TrailingArmPct:  cfg.Risk.TrailingArmPct,
		TrailingStopPct: cfg.Risk.TrailingStopPct,
		PositionSizePct: cfg.Risk.PositionSizePct,
		MaxPositions:    cfg.Risk.MaxPositions,
		MaxDailyLossPct: cfg.Risk.MaxDailyLossPct,
	}, cfg.Equity, log)

	eng := engine.New(engine.Config{
		Location: loc,
		Indicators: indicators.Params{
			RSIPeriod:    cfg.RSI.Period,
			AFInit:       cfg.PSAR.AFInit,
			AFStep:       cfg.PSAR.AFStep,
			AFMax:        cfg.PSAR.AFMax,
			VolumePeriod: cfg.Volume.AvgPeriod,
		},
		Evaluator: signal.Options{
			RequireVolume:  cfg.Signal.RequireVolume,
			RequirePattern: cfg.Signal.RequirePattern,
			MaxPatternAge:  cfg.Engulfing.Window,
		},
	}, engine.Deps{
		Manager: manager,
		Detect:  pattern.NewDetector(cfg.Engulfing.Window, cfg.Engulfing.MinBodyRatio),
		Journal: j,
		Cache:   store,
		Alerts:  dispatcher,
		Metrics: metrics.New(nil),
		Log:     log,
	})

	return &Pipeline{
		Cfg:     cfg,
		Log:     log,
		Journal: j,
		Cache:   store,
		Manager: manager,
		Engine:  eng,
	}, nil
}

// Run streams the feed through the engine until the feed ends or ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context, f feed.Feed) error {
	bars := make(chan market.Bar, 256)

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- f.Run(ctx, bars)
		close(bars)
	}()

	runErr := p.Engine.Run(ctx, bars)

	if err := <-feedErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// Close releases the journal and cache.
func (p *Pipeline) Close() error {
	cerr := p.Cache.Close()
	if err := p.Journal.Close(); err != nil {
		return err
	}
	return cerr
}
