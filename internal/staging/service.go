// Package staging owns the run lifecycle: it reads an uploaded inventory
// file, drives the pipeline, simulates the upload of the clean partition,
// renders reports, and records the result in the in-memory registry and
// the optional store.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealerops/invstage/internal/config"
	"github.com/dealerops/invstage/internal/partition"
	"github.com/dealerops/invstage/internal/pipeline"
	"github.com/dealerops/invstage/internal/reader"
	"github.com/dealerops/invstage/internal/report"
	"github.com/dealerops/invstage/internal/schema"
	"github.com/dealerops/invstage/internal/store"
	"github.com/dealerops/invstage/internal/transform"
	"github.com/dealerops/invstage/internal/upload"
	"github.com/dealerops/invstage/internal/writer"
)

// Run is one processed inventory file: its pipeline outcome, the simulated
// upload result, and the rendered summary.
type Run struct {
	ID        string           `json:"id"`
	FileName  string           `json:"fileName"`
	Outcome   pipeline.Outcome `json:"outcome"`
	Upload    upload.Result    `json:"upload"`
	Summary   string           `json:"-"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Service processes inventory files and tracks their runs.
type Service struct {
	cfg         config.PipelineConfig
	schema      schema.Schema
	reader      *reader.Reader
	writer      *writer.Writer
	pipe        *pipeline.Pipeline
	transformer *transform.Transformer
	simulator   *upload.Simulator
	store       *store.Store // nil disables persistence
	log         *slog.Logger

	mu    sync.RWMutex
	runs  map[string]*Run
	order []string // run IDs, oldest first
}

// NewService creates a Service. st may be nil, in which case runs are
// kept only in memory.
func NewService(cfg config.PipelineConfig, st *store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		schema:      schema.Inventory,
		reader:      reader.New(log),
		writer:      writer.New(log),
		pipe:        pipeline.New(log),
		transformer: transform.New(log),
		simulator:   upload.New(log),
		store:       st,
		log:         log,
		runs:        make(map[string]*Run),
	}
}

// ProcessFile runs the full staging flow for one uploaded file. A failed
// run (unreadable file, empty dataset) still produces and registers a Run
// whose outcome carries Success=false and the error message.
func (s *Service) ProcessFile(ctx context.Context, fileName string, data []byte) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}
	log := s.log.With("run_id", run.ID, "file", fileName)

	ds, err := s.reader.Parse(data, fileName)
	if err != nil {
		log.Error("failed to read inventory file", "error", err)
		run.Outcome = pipeline.Outcome{
			Success:      false,
			ErrorMessage: err.Error(),
		}
		run.Summary = report.Summary(run.Outcome, run.Upload)
		s.register(ctx, run)
		return run, nil
	}

	policy := partition.Policy{SkipFlagged: s.cfg.SkipFlagged}
	outcome := s.pipe.Run(ds, s.schema, policy)

	if outcome.Success {
		outcome.Report = report.Validation(outcome.Issues, outcome.RecordsProcessed)

		// Final shaping before the upload boundary.
		cleanForUpload := s.transformer.FormatForUpload(outcome.Clean)
		run.Upload = s.simulator.Upload(cleanForUpload, upload.Config{SkipFlagged: policy.SkipFlagged})

		if s.cfg.SaveProcessed {
			if err := s.saveProcessed(run.ID, outcome); err != nil {
				log.Warn("failed to save processed file", "error", err)
			}
		}
	}

	run.Outcome = outcome
	run.Summary = report.Summary(outcome, run.Upload)
	s.register(ctx, run)

	log.Info("run registered",
		"success", outcome.Success,
		"uploaded", run.Upload.RecordsUploaded,
		"flagged", outcome.FlaggedCount,
	)
	return run, nil
}

// saveProcessed writes the processed dataset, annotated with issue
// markers, into the configured output directory.
func (s *Service) saveProcessed(runID string, o pipeline.Outcome) error {
	name := fmt.Sprintf("processed_%s.csv", runID)
	path := filepath.Join(s.cfg.OutputDir, name)
	return s.writer.WriteAnnotated(o.Processed, o.Annotations, path)
}

// register adds a run to the in-memory registry, evicting the oldest runs
// beyond the configured history cap, and persists it when a store is
// configured.
func (s *Service) register(ctx context.Context, run *Run) {
	s.mu.Lock()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for s.cfg.MaxRunHistory > 0 && len(s.order) > s.cfg.MaxRunHistory {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run.ID, run.FileName, run.Outcome, run.Upload); err != nil {
			s.log.Error("failed to persist run", "run_id", run.ID, "error", err)
		}
	}
}

// GetRun returns a run by ID from the registry.
func (s *Service) GetRun(runID string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok
}

// ListRuns returns registered runs, newest first.
func (s *Service) ListRuns() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	return out
}

// AcceptsFile reports whether the file name has a supported extension.
// Used by the HTTP layer to reject unsupported uploads before reading the
// whole body into memory.
func (s *Service) AcceptsFile(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".tsv", ".txt":
		return true
	default:
		return false
	}
}
