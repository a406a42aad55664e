// Package upload simulates the downstream upload of clean inventory
// records. No transport is involved: uploading means counting the records
// that would be transmitted.
package upload

import (
	"log/slog"

	"github.com/dealerops/invstage/internal/dataset"
)

// Config controls the simulated upload.
type Config struct {
	// SkipFlagged drops flagged records before counting as uploaded.
	// The partitioner has already separated them when this is set, so the
	// simulator only ever sees the clean partition.
	SkipFlagged bool `json:"skipFlagged"`
}

// DefaultConfig skips flagged records.
func DefaultConfig() Config {
	return Config{SkipFlagged: true}
}

// Result reports the simulated upload counts.
type Result struct {
	Success         bool   `json:"success"`
	RecordsUploaded int    `json:"recordsUploaded"`
	RecordsFailed   int    `json:"recordsFailed"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// Simulator stands in for the real upload transport.
type Simulator struct {
	log *slog.Logger
}

// New creates a Simulator. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{log: log}
}

// Upload simulates uploading the given records. The uploaded count always
// equals the partition size; nothing fails in simulation.
func (s *Simulator) Upload(ds dataset.Dataset, cfg Config) Result {
	s.log.Info("uploading records", "count", ds.Len(), "skip_flagged", cfg.SkipFlagged)
	return Result{
		Success:         true,
		RecordsUploaded: ds.Len(),
		RecordsFailed:   0,
	}
}
