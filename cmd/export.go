package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"roster-sync/core/reconcile"
	"roster-sync/core/storage"
	"roster-sync/feature/export"
	"roster-sync/feature/players/models"

	"github.com/spf13/cobra"
)

var exportLatest bool

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current roster to object storage",
	Long:  `Fetches the roster snapshot once and uploads it to {bucket}/{prefix}/players.json. With --latest, prints the last export instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()

		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		exporter := export.NewExporter(store, cfg.Storage.Bucket, cfg.Storage.ExportPrefix, logg.Named("export"))

		if exportLatest {
			doc, err := exporter.Latest(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		client, err := newAPIClient(cfg, logg)
		if err != nil {
			return err
		}
		roster, err := client.Fetch(ctx)
		if err != nil {
			return err
		}

		if err := exporter.Export(ctx, reconcile.View[models.Player]{Version: 1, Entities: roster}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d players to %s/%s\n", len(roster), cfg.Storage.Bucket, exporter.Key())
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportLatest, "latest", false, "Print the last export instead of writing a new one")
	RootCmd.AddCommand(exportCmd)
}
