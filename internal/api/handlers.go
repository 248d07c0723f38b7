package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savegress/ledgerlens/internal/config"
	"github.com/savegress/ledgerlens/internal/connectors"
	"github.com/savegress/ledgerlens/internal/reconcile"
	"github.com/savegress/ledgerlens/internal/reporting"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	cfg      config.ReconciliationConfig
	internal connectors.Source
	external connectors.Source
	reports  *reporting.Store
}

// NewHandlers creates new handlers
func NewHandlers(cfg config.ReconciliationConfig, internal, external connectors.Source, reports *reporting.Store) *Handlers {
	return &Handlers{
		cfg:      cfg,
		internal: internal,
		external: external,
		reports:  reports,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "ledgerlens",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// RunRequest is the report-generation request: a reconciliation period.
type RunRequest struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// RunReconciliation fetches both transaction sets for the requested period
// and runs a reconciliation, storing the resulting report.
//
// Validation failures return 400. Upstream unavailability returns 502, a
// retryable error distinct from validation; the caller retries by
// re-invoking, never the engine.
func (h *Handlers) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := h.validatePeriod(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	internalSet, err := h.internal.FetchTransactions(r.Context(), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	externalSet, err := h.external.FetchTransactions(r.Context(), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	report, err := reconcile.Run(reconcile.RunInput{
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		Internal:       internalSet,
		External:       externalSet,
		Policy:         h.cfg.Policy(),
		SeverityRules:  h.cfg.SeverityRules,
		MaxSuggestions: h.cfg.MaxSuggestions,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusCreated, h.reports.Save(report))
}

func (h *Handlers) validatePeriod(req RunRequest) string {
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return "periodStart and periodEnd are required"
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return "periodEnd must be after periodStart"
	}
	maxDays := h.cfg.MaxPeriodDays
	if maxDays <= 0 {
		maxDays = 90
	}
	if req.PeriodEnd.Sub(req.PeriodStart) > time.Duration(maxDays)*24*time.Hour {
		return "period must not exceed " + strconv.Itoa(maxDays) + " days"
	}
	if req.PeriodStart.After(time.Now()) {
		return "periodStart must not be in the future"
	}
	return ""
}

// ListReports lists stored reconciliation reports
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.reports.List())
}

// GetReport gets a reconciliation report by ID
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, ok := h.reports.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}

	respond(w, http.StatusOK, report)
}

// GetPolicy returns the active tolerance policy and severity rules
func (h *Handlers) GetPolicy(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"policy":        h.cfg.Policy(),
		"severityRules": h.cfg.SeverityRules,
	})
}

func respondFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, connectors.ErrUpstreamUnavailable) {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
