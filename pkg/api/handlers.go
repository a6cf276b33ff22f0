package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skyops/apodsync/pkg/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

type triggerRequest struct {
	Date string `json:"date"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth reports service liveness.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTriggerRun runs the pipeline for the requested logical date
// and responds with the per-node result. An empty date means the
// current UTC date.
func (s *server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid request body"})

		return
	}

	if req.Date == "" {
		req.Date = time.Now().UTC().Format(pipeline.DateLayout)
	}

	if _, err := time.Parse(pipeline.DateLayout, req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid date, expected YYYY-MM-DD"})

		return
	}

	s.log.WithField("logical_date", req.Date).
		Info("Manual run triggered")

	result := s.runner.Run(r.Context(), req.Date)
	if s.history != nil {
		s.history.Add(result)
	}

	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, result)
}

// handleListRuns returns recent run results, newest first.
func (s *server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	results := []*pipeline.RunResult{}
	if s.history != nil {
		results = s.history.List()
	}

	writeJSON(w, http.StatusOK, results)
}

// handleGetEntry returns the stored row for a logical date.
func (s *server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(pipeline.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid date, expected YYYY-MM-DD"})

		return
	}

	entry, err := s.store.GetEntry(r.Context(), date)
	if err != nil {
		s.log.WithError(err).Error("Failed to read entry")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	if entry == nil {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"no entry for date " + date})

		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleLatestEntry returns the most recent stored row.
func (s *server) handleLatestEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.LatestEntry(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to read latest entry")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	if entry == nil {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"no entries stored"})

		return
	}

	writeJSON(w, http.StatusOK, entry)
}
