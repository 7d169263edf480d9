// Package replay implements the CSV replay command.
package replay

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnquant/watchtower/alert"
	"github.com/vnquant/watchtower/feed"
	"github.com/vnquant/watchtower/internal/cli/config"
	"github.com/vnquant/watchtower/internal/cli/wire"
)

func New(rc *config.RootConfig) *cobra.Command {
	var barsPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a bar CSV through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := wire.Load(rc)
			if err != nil {
				return err
			}
			defer log.Sync()

			if barsPath != "" {
				cfg.Feed.Type = "csv"
				cfg.Feed.CSVPath = barsPath
			}
			if cfg.Feed.CSVPath == "" {
				return fmt.Errorf("--bars is required (or feed.csv_path in config)")
			}

			// Replays never page anyone.
			p, err := wire.Build(cfg, log, &alert.LogNotifier{Log: log})
			if err != nil {
				return err
			}
			defer p.Close()

			log.Info("replaying", zap.String("bars", cfg.Feed.CSVPath))

			if err := p.Run(context.Background(), feed.NewCSV(cfg.Feed.CSVPath, log)); err != nil {
				return err
			}

			view := p.Manager.Snapshot()
			fmt.Printf(
				"Done. equity=%.2f day_realized=%.2f open_positions=%d\n",
				view.Equity,
				view.DayRealized,
				view.OpenPositions,
			)
			for _, pos := range p.Manager.OpenPositions() {
				fmt.Printf("  open %s: %s entry=%.2f shares=%.0f\n",
					pos.Symbol, pos.Status, pos.EntryPrice, pos.Shares)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&barsPath, "bars", "", "Bar CSV (symbol,time,open,high,low,close,volume)")

	return cmd
}
