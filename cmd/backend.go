package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-sync/core/database"
	"roster-sync/feature/backend"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// backendCmd represents the backend command
var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the reference players backend",
	Long:  `Serves the players REST API and the /ws/players event feed from the configured database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := backend.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if missing, err := store.VerifySchema(); err != nil {
			return err
		} else if len(missing) > 0 {
			return fmt.Errorf("schema is missing columns: %v", missing)
		}

		hub := backend.NewHub(ctx, logg.Named("hub"))
		defer hub.Shutdown()

		srv := &http.Server{
			Addr:              cfg.Server.BackendAddress(),
			Handler:           backend.NewRouter(store, hub, logg.Named("backend")),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting backend", zap.String("address", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logg.Info("Shutting down backend...")
		hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	RootCmd.AddCommand(backendCmd)
}
