package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"worklog/core/loader"
	"worklog/core/logger"
	"worklog/core/middleware/auth"
	"worklog/core/middleware/rayid"
	"worklog/feature/integrity"
	"worklog/feature/logs"
	settingsfeature "worklog/feature/settings"
	syncfeature "worklog/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "worklog/docs/swagger"
)

// @title Worklog API
// @version 1.0
// @description Weekly work log with Feishu bitable synchronization.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the worklog server",
	Long:  `Starts the HTTP server, the periodic sync scheduler and all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		logg := a.logger
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		mgr := loader.NewManager(logg)
		for _, f := range []loader.Feature{
			logs.NewFeature(a.logs),
			syncfeature.NewFeature(a.sync),
			settingsfeature.NewFeature(a.settingsS),
			integrity.NewFeature(a.integrity),
		} {
			if err := mgr.Register(f); err != nil {
				return err
			}
		}

		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id
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

		// 3. Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		metricsPath := a.cfg.Server.MetricsPath
		if metricsPath != "" {
			app.Get(metricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
		}

		// 4. Auth protects everything else
		app.Use(auth.New(auth.Config{
			ApiKey: a.cfg.Server.ApiKey,
			Skip: func(c *fiber.Ctx) bool {
				path := c.Path()
				return strings.HasPrefix(path, "/swagger") || (metricsPath != "" && path == metricsPath)
			},
		}))
		if !a.cfg.Server.AuthEnabled() {
			logg.Warn("API key is empty, requests are not authenticated")
		}

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		if a.cfg.Sync.Periodic {
			a.scheduler.Start(ctx)
			defer a.scheduler.Stop()
			logg.Info("Periodic sync enabled", zap.Duration("interval", a.scheduler.Interval()))
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()))
			errCh <- app.Listen(a.cfg.Server.Addr())
		}()

		// Graceful shutdown
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case err := <-errCh:
			return err
		}
		logg.Info("Shutting down server...")
		cancel()
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
