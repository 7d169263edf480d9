// Package watch implements the live watch command: WebSocket bars in,
// Telegram alerts out.
package watch

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnquant/watchtower/alert"
	"github.com/vnquant/watchtower/feed"
	"github.com/vnquant/watchtower/internal/cli/config"
	"github.com/vnquant/watchtower/internal/cli/wire"
	"github.com/vnquant/watchtower/metrics"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		feedURL string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a live bar stream and alert on signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := wire.Load(rc)
			if err != nil {
				return err
			}
			defer log.Sync()

			if feedURL != "" {
				cfg.Feed.Type = "ws"
				cfg.Feed.URL = feedURL
			}
			if cfg.Feed.Type != "ws" || cfg.Feed.URL == "" {
				return fmt.Errorf("watch needs a ws feed (set feed.url or --feed-url)")
			}

			var notifier alert.Notifier
			if dryRun || cfg.Alert.TelegramToken == "" {
				notifier = &alert.LogNotifier{Log: log}
				log.Info("alerts go to the log only")
			} else {
				notifier, err = alert.NewTelegram(cfg.Alert.TelegramToken, cfg.Alert.TelegramChatID)
				if err != nil {
					return err
				}
			}

			p, err := wire.Build(cfg, log, notifier)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				go func() {
					if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
						log.Error("metrics server", zap.Error(err))
					}
				}()
				log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			}

			src, err := feed.NewWS(feed.WSConfig{URL: cfg.Feed.URL}, log)
			if err != nil {
				return err
			}

			log.Info("watching",
				zap.Strings("symbols", cfg.Symbols),
				zap.String("feed", cfg.Feed.URL))

			return p.Run(ctx, src)
		},
	}

	cmd.Flags().StringVar(&feedURL, "feed-url", "", "WebSocket bar feed URL (overrides config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log alerts instead of sending to Telegram")

	return cmd
}
