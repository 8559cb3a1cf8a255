package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchJSON bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the roster and log every change",
	Long:  `Runs the roster engine without the HTTP API and reports each published view. Use --json to print views to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, _, err := newRoster(ctx, cfg, logg)
		if err != nil {
			return err
		}
		defer engine.Stop()

		obs := engine.Subscribe()
		defer obs.Cancel()
		engine.Start()

		enc := json.NewEncoder(os.Stdout)
		for view := range obs.C() {
			if watchJSON {
				if err := enc.Encode(view); err != nil {
					return err
				}
				continue
			}
			logg.Info("Roster changed",
				zap.Uint64("version", view.Version),
				zap.Int("players", len(view.Entities)),
				zap.Bool("loading", view.Loading),
				zap.String("error", view.Error),
				zap.Uint64("dropped_events", engine.Dropped()),
			)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print each view as JSON")
	RootCmd.AddCommand(watchCmd)
}
