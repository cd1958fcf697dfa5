package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sensorlab/mfgqc/internal/kpi"
	"github.com/sensorlab/mfgqc/internal/logging"
	"github.com/sensorlab/mfgqc/internal/store"
	"github.com/sensorlab/mfgqc/internal/validator"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"records": s.table.NumRows(),
		"columns": s.table.NumColumns(),
	})
}

func (s *Server) handleOverall(w http.ResponseWriter, r *http.Request) {
	overall, err := kpi.OverallFailureRate(s.table, s.schema)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, overall)
}

func (s *Server) handleByType(w http.ResponseWriter, r *http.Request) {
	byType, err := kpi.FailureRateByType(s.table, s.schema)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, byType)
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	modes, err := kpi.FailureModeCounts(s.table, s.schema)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, modes)
}

func (s *Server) handleTempDelta(w http.ResponseWriter, r *http.Request) {
	// The stats payload carries its own error field when the derived
	// column is absent; that is a valid response, not a server error.
	writeJSON(w, kpi.TempDeltaStats(s.table, s.schema))
}

func (s *Server) handleQuantiles(w http.ResponseWriter, r *http.Request) {
	// Column names carry spaces and bracketed units, so they arrive escaped.
	column := chi.URLParam(r, "column")
	if unescaped, err := url.PathUnescape(column); err == nil {
		column = unescaped
	}
	rates, err := kpi.QuantileFailureRates(
		s.table, s.schema, column,
		s.cfg.Analysis.QuantileLow, s.cfg.Analysis.QuantileHigh,
	)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, rates)
}

// handleRuns lists recent pipeline runs from the history store, newest
// first. The limit query parameter defaults to 20, capped at 100.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	runs, err := s.runs.LatestRuns(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleValidationReport(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	v := validator.New(s.table, s.schema)
	results := v.RunAllChecks()
	logger.Debug("validation battery complete", "checks", len(results))

	writeMarkdown(w, v.Report(s.sourceName))
}

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	summary, err := kpi.Summary(s.table, s.schema)
	if err != nil {
		logger.Error("summary generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate summary")
		return
	}
	writeMarkdown(w, summary)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeMarkdown writes a markdown document response.
func writeMarkdown(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(content))
}
