// Package worker re-analyzes ledgers on request and on a schedule, and
// publishes an alert when the latest entry is an expense above the threshold.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/analysis"
	"budget/internal/core"
	"budget/internal/log"
)

type Analyzer interface {
	Analyze(ctx context.Context, ledger core.LedgerID, opts analysis.Options) (*analysis.Report, error)
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, msg *amqp.AlertMessage) error
}

// SweepResult summarizes one pass over every ledger.
type SweepResult struct {
	Ledgers int
	Failed  int
	Alerts  int
}

type RefreshWorker struct {
	analyzer    Analyzer
	ledgers     analysis.LedgerLister
	alerts      AlertPublisher
	concurrency int
	logger      *log.Logger

	mu sync.Mutex
	// last alert signature per ledger, so a sweep does not repeat itself
	alerted map[core.LedgerID]string
}

// NewRefreshWorker builds a worker. alerts may be nil, in which case
// triggered alerts are only logged.
func NewRefreshWorker(analyzer Analyzer, ledgers analysis.LedgerLister, alerts AlertPublisher, concurrency int, logger *log.Logger) *RefreshWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshWorker{
		analyzer:    analyzer,
		ledgers:     ledgers,
		alerts:      alerts,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
		alerted:     make(map[core.LedgerID]string),
	}
}

// HandleRefreshMessage processes a single refresh message from AMQP
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh message",
		log.FieldMessageID, msg.ID,
		log.FieldLedger, string(msg.Ledger))
	_, err := w.RefreshLedger(ctx, msg.Ledger)
	return err
}

// RefreshLedger analyzes one ledger and publishes an alert if needed. It
// reports whether an alert was published. Data problems in the ledger are
// logged and swallowed: retrying cannot fix them.
func (w *RefreshWorker) RefreshLedger(ctx context.Context, ledger core.LedgerID) (bool, error) {
	report, err := w.analyzer.Analyze(ctx, ledger, analysis.Options{Granularity: core.Month})
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidRecord), errors.Is(err, core.ErrInvalidLedger), errors.Is(err, core.ErrLedgerNotFound):
		w.logger.WarnContext(ctx, "Skipping ledger",
			log.FieldLedger, string(ledger),
			log.FieldError, err)
		return false, nil
	default:
		return false, fmt.Errorf("analyze ledger %s: %w", ledger, err)
	}

	w.logger.InfoContext(ctx, "Ledger refreshed",
		log.FieldLedger, string(ledger),
		log.FieldEntries, len(report.Entries),
		log.FieldForecastStatus, string(report.Forecast.Status),
		log.FieldAlertLevel, string(report.Alert.Level))

	if !report.Alert.Triggered() {
		return false, nil
	}
	sig := signature(report.Alert)
	if w.alreadyAlerted(ledger, sig) {
		return false, nil
	}

	if w.alerts == nil {
		w.logger.WarnContext(ctx, "High expense detected",
			log.FieldLedger, string(ledger),
			log.FieldAmount, report.Alert.Amount.String(),
			"category", report.Alert.Category)
	} else if err := w.alerts.PublishAlert(ctx, amqp.NewAlertMessage(ledger, report.Alert)); err != nil {
		return false, fmt.Errorf("publish alert for %s: %w", ledger, err)
	}

	w.markAlerted(ledger, sig)
	return true, nil
}

// Sweep refreshes every ledger, at most concurrency at a time. A failing
// ledger does not stop the others.
func (w *RefreshWorker) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := w.ledgers.ListLedgers(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list ledgers: %w", err)
	}

	var failed, alerts atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			sent, err := w.RefreshLedger(gctx, id)
			if err != nil {
				failed.Add(1)
				w.logger.ErrorContext(gctx, "Ledger refresh failed",
					log.FieldLedger, string(id),
					log.FieldError, err)
				return nil
			}
			if sent {
				alerts.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()

	res := SweepResult{Ledgers: len(ids), Failed: int(failed.Load()), Alerts: int(alerts.Load())}
	w.logger.InfoContext(ctx, "Sweep finished",
		log.FieldOperation, log.OpSweep,
		"ledgers", res.Ledgers,
		"failed", res.Failed,
		"alerts", res.Alerts)
	return res, err
}

// Run sweeps immediately and then every interval until ctx is done.
func (w *RefreshWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic sweep failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func signature(d core.AlertDecision) string {
	return d.Date.String() + "|" + d.Amount.String() + "|" + d.Category
}

func (w *RefreshWorker) alreadyAlerted(ledger core.LedgerID, sig string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alerted[ledger] == sig
}

func (w *RefreshWorker) markAlerted(ledger core.LedgerID, sig string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alerted[ledger] = sig
}
