package web

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealerops/invstage/internal/logging"
	"github.com/dealerops/invstage/internal/store"
)

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleProcess accepts a multipart inventory file, runs the pipeline,
// and returns the run with its outcome.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Pipeline.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if !s.service.AcceptsFile(header.Filename) {
		writeError(w, r, http.StatusBadRequest, "unsupported file format")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	log := logging.WithFields(r.Context(), "file", header.Filename, "size", header.Size)
	log.Info("processing inventory upload")

	run, err := s.service.ProcessFile(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !run.Outcome.Success {
		// The run is recorded either way; the status distinguishes a
		// rejected input from a completed run with validation issues.
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, r, run)
}

// handleListRuns returns registered runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{"runs": s.service.ListRuns()})
}

// handleGetRun returns a single run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.service.GetRun(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, r, run)
}

// handleGetReport returns the markdown summary report for a run.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.service.GetRun(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, run.Summary)
}

// handleGetFlagged returns the flagged partition of a run with each
// record's issue reasons.
func (s *Server) handleGetFlagged(w http.ResponseWriter, r *http.Request) {
	run, ok := s.service.GetRun(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}

	flagged := run.Outcome.Flagged
	var reasons []string
	for _, ann := range run.Outcome.Annotations {
		if ann.HasIssues {
			reasons = append(reasons, ann.Reasons)
		}
	}

	type flaggedRecord struct {
		RowIndex int            `json:"rowIndex"`
		Reasons  string         `json:"reasons"`
		Record   map[string]any `json:"record"`
	}
	out := make([]flaggedRecord, 0, flagged.Len())
	for i, rec := range flagged.Rows {
		reason := ""
		if i < len(reasons) {
			reason = reasons[i]
		}
		out = append(out, flaggedRecord{
			RowIndex: i,
			Reasons:  reason,
			Record:   store.RecordJSON(flagged.Columns, rec),
		})
	}
	writeJSON(w, r, map[string]any{"flagged": out})
}
