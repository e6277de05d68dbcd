package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentApp).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize application", err)
	}
	defer app.Close()
	app.Start()

	var publisher services.RefreshPublisher
	client, err := cli.NewAMQPClient(cfg, logger)
	if err != nil {
		// Appends still work; the worker's periodic sweep catches up.
		logger.Warn("AMQP unavailable, refresh requests disabled", log.FieldError, err)
	} else if client != nil {
		defer client.Close()
		publisher = client
	}

	deps := apphttp.Deps{
		Analyzer: app.Analysis,
		Ledgers:  app.Backend.Backend,
		Ready:    app.Ready,
		Logger:   logger,
	}
	if app.Backend.Writer != nil {
		deps.Recorder = services.NewTransactionService(app.Backend.Writer, publisher, logger)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		return
	}

	logger.Info("Server stopped gracefully")
}
