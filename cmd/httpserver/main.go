package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/printforge/quote-backend/cleanup"
	"github.com/printforge/quote-backend/common"
	"github.com/printforge/quote-backend/config"
	"github.com/printforge/quote-backend/geometry"
	"github.com/printforge/quote-backend/httpserver"
	"github.com/printforge/quote-backend/metrics"
	"github.com/printforge/quote-backend/session"
	"github.com/printforge/quote-backend/storage"
	"github.com/printforge/quote-backend/uploader"
	"github.com/urfave/cli/v2"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		Usage:   "address to listen on for API",
		EnvVars: []string{"LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:    "metrics-addr",
		Value:   "127.0.0.1:8090",
		Usage:   "address to listen on for Prometheus metrics",
		EnvVars: []string{"METRICS_ADDR"},
	},
	&cli.DurationFlag{
		Name:    "sweep-interval",
		Value:   cleanup.DefaultInterval,
		Usage:   "cadence of the background TTL sweep",
		EnvVars: []string{"SWEEP_INTERVAL"},
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: common.PackageName,
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "quote-backend",
		Usage: "Serve the 3D model upload and instant-quote API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			sweepInterval := cCtx.Duration("sweep-interval")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			// Resolve storage configuration from the environment. Remote
			// misconfiguration fails here, before any request is served.
			cfg, err := config.FromEnv()
			if err != nil {
				logger.Error("Failed to resolve storage configuration", "err", err)
				return err
			}

			store, err := storage.NewObjectStore(cfg, logger)
			if err != nil {
				logger.Error("Failed to create storage backend", "err", err)
				return err
			}
			logger.Info("Storage backend ready",
				"mode", string(store.Mode()),
				"location", store.LocationURI(),
				"ttlHours", cfg.TTLHours)

			m := metrics.New(nil)
			ledger := session.NewLedger()
			uploads := uploader.New(store, ledger, m, cfg.TTL(), logger)

			handler := httpserver.NewHandler(uploads, geometry.UnavailableAnalyzer{}, logger)

			server := httpserver.New(&httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            drainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}, handler)

			scheduler := cleanup.NewScheduler(store, cfg.TTL(), sweepInterval, m, logger)
			scheduler.Start()

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			scheduler.Stop()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
