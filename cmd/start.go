package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ticketing-sync/core/loader"
	"ticketing-sync/core/logger"
	"ticketing-sync/core/middleware/auth"
	"ticketing-sync/core/middleware/rayid"
	"ticketing-sync/feature/ticketing"
	"ticketing-sync/feature/ticketing/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "ticketing-sync/docs/swagger"
)

// @title Ticketing Sync API
// @version 1.0
// @description API for synchronizing ticketing platforms with the ledger.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server and the scheduler",
	Long: `Starts the HTTP server exposing synchronization endpoints and, when
SYNC_SCHEDULE_INTERVAL_MINUTES is set, the periodic synchronization of every organization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.cfg.Server.Validate(); err != nil {
			return err
		}

		logg := a.logger
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(ticketing.NewFeature(a.sync, a.store, logg))

		// RayID first so every log line carries it
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

		// Swagger stays public
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		var wg sync.WaitGroup
		sched := scheduler.New(a.cfg.Sync.ScheduleInterval(), a.store, a.sync, logg.Named("scheduler"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(ctx)
		}()

		serverErr := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			serverErr <- app.Listen(a.cfg.Server.Address())
		}()

		select {
		case err = <-serverErr:
			logg.Error("Server failed", zap.Error(err))
			stop()
		case <-ctx.Done():
			logg.Info("Shutting down server...")
		}

		timeout := time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second
		if shutdownErr := app.ShutdownWithTimeout(timeout); shutdownErr != nil {
			logg.Warn("Server shutdown failed", zap.Error(shutdownErr))
		}
		wg.Wait()

		return err
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
