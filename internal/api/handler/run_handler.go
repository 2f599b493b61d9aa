package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/pipeline"
	"energy-mix-pipeline/internal/store"
)

// RunHandler exposes pipeline runs and their derived tables.
type RunHandler struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewRunHandler builds the handler around a loaded configuration.
func NewRunHandler(cfg *config.Config, log zerolog.Logger) *RunHandler {
	return &RunHandler{cfg: cfg, log: log}
}

type createRunRequest struct {
	Force bool `json:"force"`
}

// CreateRun starts a pipeline run
// @Summary Start a pipeline run
// @Description Start a full load → resolve → derive → trend → assemble batch asynchronously
// @Tags runs
// @Accept json
// @Produce json
// @Param run body createRunRequest false "Run options"
// @Success 202 {object} map[string]interface{} "Run accepted"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID); err != nil {
		http.Error(w, "Failed to register run", http.StatusInternalServerError)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := pipeline.Run(ctx, runID, h.cfg, req.Force, h.log); err != nil {
			h.log.Error().Err(err).Str("run", runID).Msg("pipeline run failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "Run accepted",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	})
}

// ListRuns lists all pipeline runs
// @Summary List runs
// @Description List all pipeline runs with their current status
// @Tags runs
// @Produce json
// @Success 200 {array} store.RunInfo "Runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun fetches one run
// @Summary Get run
// @Description Fetch one run's status and recorded errors
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.RunInfo "Run"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	run, err := store.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetReport returns the assembled comparison table
// @Summary Get comparison report
// @Description Rows of (year, metric, EU27 value, USA value, difference, status)
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.ReportRow "Report rows"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/report [get]
func (h *RunHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rows, err := store.GetReportRows(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to fetch report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

// GetTrends returns the trend table
// @Summary Get trend table
// @Description Endpoint-to-endpoint trend rows per (group, metric)
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.TrendResult "Trend rows"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/trends [get]
func (h *RunHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := store.GetTrends(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to fetch trends", http.StatusInternalServerError)
		return
	}
	writeJSON(w, trends)
}

// GetWarnings returns the run's annotations
// @Summary Get warnings
// @Description Coverage-gap and undefined-metric annotations recorded for the run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.Annotation "Warnings"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/warnings [get]
func (h *RunHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := store.GetWarnings(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to fetch warnings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, warnings)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
