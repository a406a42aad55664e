// Package writer persists datasets to delimited files. The writer only
// reports success or failure; nothing it does feeds back into the
// pipeline.
package writer

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/partition"
)

var delimiters = map[string]rune{
	".csv": ',',
	".tsv": '\t',
}

// Writer saves processed inventory datasets.
type Writer struct {
	log *slog.Logger
}

// New creates a Writer. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{log: log}
}

// WriteFile saves a dataset to the given path, creating parent
// directories as needed. The extension selects the delimiter.
func (w *Writer) WriteFile(ds dataset.Dataset, path string) error {
	return w.write(ds, nil, path)
}

// WriteAnnotated saves a dataset with two trailing columns, "Has Issues"
// and "Issue Reasons", taken from the per-record annotations.
func (w *Writer) WriteAnnotated(ds dataset.Dataset, anns []partition.Annotation, path string) error {
	return w.write(ds, anns, path)
}

func (w *Writer) write(ds dataset.Dataset, anns []partition.Annotation, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	delim, ok := delimiters[ext]
	if !ok {
		return fmt.Errorf("unsupported output format: %s", ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = delim

	header := append([]string(nil), ds.Columns...)
	if anns != nil {
		header = append(header, "Has Issues", "Issue Reasons")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range ds.Rows {
		row := make([]string, 0, len(header))
		for _, col := range ds.Columns {
			row = append(row, rec[col].StringForm())
		}
		if anns != nil {
			ann := partition.Annotation{}
			if i < len(anns) {
				ann = anns[i]
			}
			row = append(row, fmt.Sprintf("%t", ann.HasIssues), ann.Reasons)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	w.log.Info("saved processed inventory", "path", path, "records", ds.Len())
	return nil
}
