package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/aggregate"
	"budget/internal/alert"
	"budget/internal/core"
	"budget/internal/forecast"
	"budget/internal/ledger"
	"budget/internal/log"
)

type Config struct {
	BaseCurrency string
	Threshold    decimal.Decimal
	Policy       forecast.Policy
	// Model defaults to the additive trend model when nil.
	Model forecast.Model
}

// Service is stateless: every call re-reads the source.
type Service struct {
	source     TransactionSource
	converter  Converter
	forecaster *forecast.Forecaster
	base       string
	threshold  decimal.Decimal
	logger     *log.Logger
	now        func() time.Time
}

// NewService wires a source and an optional converter to the analysis pipeline.
func NewService(source TransactionSource, converter Converter, cfg Config, logger *log.Logger) (*Service, error) {
	if source == nil {
		return nil, errors.New("transaction source is required")
	}
	if cfg.Policy == (forecast.Policy{}) {
		cfg.Policy = forecast.MonthlyPolicy()
	}
	f, err := forecast.New(cfg.Model, cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("forecaster: %w", err)
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = core.DefaultBaseCurrency
	}
	// An unset threshold takes the default; configuration rejects an explicit zero.
	if cfg.Threshold.IsZero() {
		cfg.Threshold = alert.DefaultThreshold
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		source:     source,
		converter:  converter,
		forecaster: f,
		base:       cfg.BaseCurrency,
		threshold:  cfg.Threshold,
		logger:     logger.WithComponent(log.ComponentAnalysis),
		now:        time.Now,
	}, nil
}

// Entries returns the normalized ledger without any aggregation.
func (s *Service) Entries(ctx context.Context, id core.LedgerID) ([]core.NormalizedEntry, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	raw, err := s.source.ListTransactions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if s.converter != nil {
		raw = s.converter.Convert(ctx, raw)
	}
	return ledger.NormalizeWithBase(raw, s.base)
}

// Analyze builds the full report of a ledger. Display buckets follow
// opts.Granularity; the forecast always runs on the policy's regular grid.
func (s *Service) Analyze(ctx context.Context, id core.LedgerID, opts Options) (*Report, error) {
	if opts.Granularity == "" {
		opts.Granularity = core.Month
	}
	if opts.Granularity != core.Day && opts.Granularity != core.Month {
		return nil, fmt.Errorf("unknown granularity %q", opts.Granularity)
	}

	entries, err := s.Entries(ctx, id)
	if err != nil {
		var recErr *core.RecordError
		if errors.As(err, &recErr) {
			s.logger.WarnContext(ctx, "Ledger has an invalid record",
				log.FieldLedger, string(id),
				log.FieldRef, recErr.Ref,
				log.FieldError, err)
		}
		return nil, err
	}

	buckets := aggregate.Aggregate(entries, opts.Granularity, aggregate.Sparse)

	policy := s.forecaster.Policy()
	grid := aggregate.Aggregate(entries, policy.Granularity, aggregate.Regular)
	projection := s.forecaster.Forecast(aggregate.ProfitSeries(grid))

	report := &Report{
		Ledger:      id,
		Granularity: opts.Granularity,
		Entries:     entries,
		Buckets:     buckets,
		Categories:  aggregate.ByCategory(entries),
		Summary:     aggregate.Summarize(entries, buckets),
		Forecast:    projection,
		Alert:       alert.EvaluateLatest(entries, s.threshold),
		GeneratedAt: s.now().UTC(),
	}

	s.logger.DebugContext(ctx, "Ledger analyzed",
		log.FieldLedger, string(id),
		log.FieldGranularity, opts.Granularity.String(),
		log.FieldEntries, len(entries),
		log.FieldBuckets, len(buckets),
		log.FieldForecastStatus, string(projection.Status),
		log.FieldAlertLevel, string(report.Alert.Level))

	return report, nil
}

// Threshold is the amount above which a latest-entry expense raises an alert.
func (s *Service) Threshold() decimal.Decimal {
	return s.threshold
}
