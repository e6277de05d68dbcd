// Package cli provides the initialization shared by cmd/budget,
// cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/amqp"
	"budget/internal/analysis"
	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/currency"
	"budget/internal/forecast"
	"budget/internal/log"
)

// cacheSweepInterval is how often expired FX rates are evicted.
const cacheSweepInterval = 10 * time.Minute

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and makes it the default.
func SetupLogger(level, component string) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(level)
	logCfg.Component = component
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App holds the collaborators every command builds the same way.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Backend  *backend.BackendResult
	Analysis *analysis.Service
	Caches   *cache.Manager
}

// NewApp opens the configured backend and assembles the analysis pipeline on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	svc, caches, err := newAnalysis(cfg, result.Backend, logger)
	if err != nil {
		_ = result.Close()
		return nil, err
	}

	logger.Info("Application initialized",
		"backend", backendCfg.Type.String(),
		"base_currency", cfg.BaseCurrency,
		"threshold", svc.Threshold().String())

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  result,
		Analysis: svc,
		Caches:   caches,
	}, nil
}

func newAnalysis(cfg *config.Config, source analysis.TransactionSource, logger *log.Logger) (*analysis.Service, *cache.Manager, error) {
	granularity, err := core.ParseGranularity(cfg.ForecastGranularity)
	if err != nil {
		return nil, nil, err
	}
	policy := forecast.PolicyFor(granularity).WithOverrides(cfg.ForecastMinPeriods, cfg.ForecastHorizon)

	rates, err := currency.ParseStaticRates(cfg.BaseCurrency, cfg.FXRates)
	if err != nil {
		return nil, nil, err
	}
	caches := cache.NewManager(logger)

	// Without rates there is nothing to convert; records in another currency
	// are then taken at face value.
	var converter analysis.Converter
	if rates.Len() > 0 {
		c := currency.NewConverter(cfg.BaseCurrency, rates, cfg.FXCacheTTL, logger)
		caches.Register(c.Cache())
		converter = c
	}

	svc, err := analysis.NewService(source, converter, analysis.Config{
		BaseCurrency: cfg.BaseCurrency,
		Threshold:    cfg.Threshold(),
		Policy:       policy,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, caches, nil
}

// Ready pings the backend when it supports it.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.Backend.Backend.(backend.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Start launches background maintenance.
func (a *App) Start() {
	a.Caches.StartCleanup(cacheSweepInterval)
}

// Close stops background maintenance and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	return a.Backend.Close()
}

// NewAMQPClient connects to the broker, or returns nil when AMQP_URL is empty.
func NewAMQPClient(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPAlertRoutingKey, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Fatal logs err and exits non-zero. A cancelled context means a signal
// arrived during startup, which exits cleanly.
func Fatal(logger *log.Logger, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Info("Startup interrupted")
		os.Exit(0)
	}
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
