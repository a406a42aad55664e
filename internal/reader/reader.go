// Package reader parses delimited spreadsheet exports into datasets.
//
// The reader is a collaborator of the pipeline, not part of it: it owns
// file I/O, charset normalization, and cell typing, and it rejects empty
// input before the core ever sees it. Cell values are typed on read:
// bare integers become integer values, other parseable numbers become
// floats, empty cells become null, everything else stays text.
package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dealerops/invstage/internal/dataset"
)

// delimiters by file extension. Anything else is an unsupported format.
var delimiters = map[string]rune{
	".csv": ',',
	".tsv": '\t',
	".txt": '\t',
}

// Reader loads inventory files into datasets.
type Reader struct {
	log *slog.Logger
}

// New creates a Reader. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{log: log}
}

// ReadFile reads an inventory file from disk. The extension selects the
// delimiter; unsupported extensions produce a descriptive error.
func (r *Reader) ReadFile(path string) (dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("reading inventory file: %w", err)
	}
	ds, err := r.Parse(data, filepath.Base(path))
	if err != nil {
		return dataset.Dataset{}, err
	}
	r.log.Info("read inventory file", "path", path, "records", ds.Len())
	return ds, nil
}

// Parse parses raw file bytes into a dataset. The file name's extension
// selects the delimiter. Empty input (no data rows) is rejected here so
// the pipeline never sees it.
func (r *Reader) Parse(data []byte, fileName string) (dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	delim, ok := delimiters[ext]
	if !ok {
		return dataset.Dataset{}, fmt.Errorf("unsupported file format: %s", ext)
	}

	decoded, encoding, err := decodeToUTF8(data)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("decoding %s: %w", fileName, err)
	}
	if encoding != "utf-8" {
		r.log.Debug("transcoded inventory file", "file", fileName, "encoding", encoding)
	}

	cr := csv.NewReader(bytes.NewReader(decoded))
	cr.Comma = delim
	// Real-world exports have ragged rows and loose quoting; the reader
	// pads and truncates instead of failing.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.Dataset{}, errors.New("the inventory file is empty")
		}
		return dataset.Dataset{}, fmt.Errorf("reading header row: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	ds := dataset.Dataset{Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dataset.Dataset{}, fmt.Errorf("reading data row: %w", err)
		}

		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		} else if len(row) > len(header) {
			row = row[:len(header)]
		}

		if rowEmpty(row) {
			continue
		}

		rec := make(dataset.Record, len(header))
		for i, col := range header {
			rec[col] = typeCell(cleanCell(row[i]))
		}
		ds.Rows = append(ds.Rows, rec)
	}

	if ds.Len() == 0 {
		return dataset.Dataset{}, errors.New("the inventory file is empty")
	}
	return ds, nil
}

// cleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, Excel formula prefixes (="value"), and stray
// surrounding quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}

// typeCell infers the typed value of a cleaned cell.
func typeCell(s string) dataset.Value {
	if s == "" {
		return dataset.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return dataset.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dataset.Float(f)
	}
	return dataset.Text(s)
}

func rowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
