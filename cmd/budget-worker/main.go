package main

import (
	"context"
	"errors"
	"os"
	"sync"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting budget-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize application", err)
	}
	defer app.Close()
	app.Start()

	client, err := cli.NewAMQPClient(cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	var alerts worker.AlertPublisher
	if client != nil {
		defer client.Close()
		alerts = client
	} else {
		logger.Info("AMQP disabled - alerts are only logged and no refresh requests are consumed")
	}

	refresher := worker.NewRefreshWorker(app.Analysis, app.Backend.Backend, alerts, cfg.WorkerConcurrency, logger)

	var wg sync.WaitGroup
	if client != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.ConsumeRefresh(ctx, refresher.HandleRefreshMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := refresher.Run(ctx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Periodic sweep stopped", log.FieldError, err)
			cancel()
		}
	}()

	wg.Wait()
	logger.Info("Worker shutdown complete")
}
