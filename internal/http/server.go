package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budget/internal/analysis"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/services"
)

// Analyzer is the part of the analysis service the API serves.
type Analyzer interface {
	Analyze(ctx context.Context, id core.LedgerID, opts analysis.Options) (*analysis.Report, error)
	Entries(ctx context.Context, id core.LedgerID) ([]core.NormalizedEntry, error)
}

// Recorder stores one transaction.
type Recorder interface {
	Record(ctx context.Context, id core.LedgerID, tx core.RawTransaction) (services.RecordResult, error)
}

// Deps wires the server to its collaborators. Recorder and Ready are optional:
// without a Recorder the append endpoint answers 405.
type Deps struct {
	Analyzer  Analyzer
	Ledgers   analysis.LedgerLister
	Recorder  Recorder
	Ready     func(ctx context.Context) error
	Logger    *log.Logger
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	analyzer Analyzer
	ledgers  analysis.LedgerLister
	recorder Recorder
	ready    func(ctx context.Context) error
	logger   *log.Logger
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer builds the API server. Tests can drive Handler directly;
// ListenAndServe also starts the rate limiter's cleanup.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		analyzer: deps.Analyzer,
		ledgers:  deps.Ledgers,
		recorder: deps.Recorder,
		ready:    deps.Ready,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
	}

	clientIP := security.NewClientIP()
	limit := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /ledgers", s.handleListLedgers)
	mux.HandleFunc("GET /ledgers/{ledger}/report", s.handleReport)
	mux.HandleFunc("GET /ledgers/{ledger}/entries", s.handleEntries)
	mux.Handle("POST /ledgers/{ledger}/transactions", limit(http.HandlerFunc(s.handleAppendTransaction)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ListenAndServe starts the rate limiter cleanup and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	s.limiter.Start()
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	return s.Server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
