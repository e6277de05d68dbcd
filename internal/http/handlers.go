package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budget/internal/analysis"
	"budget/internal/core"
	"budget/internal/log"
)

// readyTimeout bounds the backend ping behind /readyz.
const readyTimeout = 2 * time.Second

type entriesResponse struct {
	Ledger  core.LedgerID          `json:"ledger"`
	Entries []core.NormalizedEntry `json:"entries"`
}

type ledgersResponse struct {
	Ledgers []core.LedgerID `json:"ledgers"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).Warn("Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("backend not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleListLedgers(w http.ResponseWriter, r *http.Request) {
	if s.ledgers == nil {
		NewJSONResponse().Body(ledgersResponse{Ledgers: []core.LedgerID{}}).Write(w)
		return
	}
	ids, err := s.ledgers.ListLedgers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []core.LedgerID{}
	}
	NewJSONResponse().Body(ledgersResponse{Ledgers: ids}).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := ParseLedger(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	granularity, err := ParseGranularity(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), id, analysis.Options{Granularity: granularity})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	id, err := ParseLedger(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entries, err := s.analyzer.Entries(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.NormalizedEntry{}
	}
	NewJSONResponse().Body(entriesResponse{Ledger: id, Entries: entries}).Write(w)
}

func (s *Server) handleAppendTransaction(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		MethodNotAllowedError("ledger store is read-only", http.MethodGet).Write(w)
		return
	}

	id, err := ParseLedger(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := ParseTransaction(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	result, err := s.recorder.Record(r.Context(), id, tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(result).Write(w)
}

// writeError maps domain errors to status codes. Anything unexpected is logged
// and hidden behind a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var recErr *core.RecordError
	switch {
	case errors.As(err, &recErr):
		index := recErr.Index
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: err.Error(), Record: &index, Ref: recErr.Ref}).
			Write(w)
	case errors.Is(err, core.ErrInvalidLedger):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, core.ErrLedgerNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		ServiceUnavailableError("request timed out").Write(w)
	default:
		log.FromContext(r.Context()).Error("Request failed", log.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}
