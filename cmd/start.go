package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"roster-sync/core/loader"
	"roster-sync/core/logger"
	"roster-sync/core/middleware/auth"
	"roster-sync/core/middleware/rayid"
	"roster-sync/core/storage"
	"roster-sync/feature/export"
	"roster-sync/feature/players"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "roster-sync/docs/swagger"
)

// @title Roster Sync API
// @version 1.0
// @description Live player roster reconciled from a REST snapshot and a WebSocket event feed.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roster engine and HTTP API",
	Long:  `Loads the roster snapshot, follows the live event feed and serves the merged roster over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, client, err := newRoster(ctx, cfg, logg)
		if err != nil {
			return err
		}
		defer engine.Stop()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager(logg)
		mgr.Register(players.NewFeature(client, engine, logg.Named("players"),
			players.WithPushToken(cfg.Remote.PushToken)))

		var exporter *export.Exporter
		if cfg.Storage.ExportEnabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to create storage client: %w", err)
			}
			exporter = export.NewExporter(store, cfg.Storage.Bucket, cfg.Storage.ExportPrefix, logg.Named("export"))
			mgr.Register(export.NewFeature(exporter, true, logg.Named("export")))
		}

		// RayID first so every later log line carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		engine.Start()

		g, gctx := errgroup.WithContext(ctx)
		var mounted []string
		for _, f := range mgr.Features() {
			if f.IsEnabled() {
				mounted = append(mounted, f.Name())
			}
		}

		g.Go(func() error {
			logg.Info("Starting server",
				zap.String("address", cfg.Server.Address()),
				zap.Strings("features", mounted))
			return app.Listen(cfg.Server.Address())
		})
		if exporter != nil {
			g.Go(func() error {
				obs := engine.Subscribe()
				defer obs.Cancel()
				logg.Info("Exporting roster changes", zap.String("object", cfg.Storage.Bucket+"/"+exporter.Key()))
				err := exporter.Follow(gctx, obs.C())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			logg.Info("Shutting down server...")
			engine.Stop()
			return app.Shutdown()
		})

		return g.Wait()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
