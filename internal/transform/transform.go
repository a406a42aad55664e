// Package transform normalizes and repairs inventory datasets after
// validation. The three operations apply in strict order: column-name
// cleaning, then type conversion, then missing-value repair. Type
// conversion must precede repair because the median fill operates on
// numeric values, and name cleaning must precede any column-name-keyed
// lookup.
package transform

import (
	"log/slog"
	"math"
	"regexp"
	"sort"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/schema"
)

// Repair policy: which columns get which fill treatment. Price is never
// auto-repaired; a missing price must surface as a validation issue and
// keep the record out of the clean partition.
var (
	drivetrainColumn  = "Drivetrain Type"
	medianFillColumns = []string{
		"JD Power Trade In",
		"JD Power Retail Clean",
	}
)

// vinColumn and uploadTextColumns drive the final format-for-upload pass.
var (
	vinColumn         = "VIN"
	uploadTextColumns = []string{
		"Make", "Model", "Series", "Class", "Engine", "Body", "Transmission",
	}
)

// uploadCharRegex matches characters stripped from text columns before
// upload: anything outside word characters, whitespace, comma, dot, hyphen.
var uploadCharRegex = regexp.MustCompile(`[^\w\s,.-]`)

// Transformer applies the cleaning and repair steps. Purely structural;
// every method returns a new dataset and never mutates its input.
type Transformer struct {
	log *slog.Logger
}

// New creates a Transformer. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Transformer {
	if log == nil {
		log = slog.Default()
	}
	return &Transformer{log: log}
}

// CleanColumnNames replaces every embedded newline in every column name
// with a single space. Values are untouched. Idempotent.
func (t *Transformer) CleanColumnNames(ds dataset.Dataset) dataset.Dataset {
	out := dataset.Dataset{
		Columns: make([]string, len(ds.Columns)),
		Rows:    make([]dataset.Record, len(ds.Rows)),
	}
	renames := make(map[string]string, len(ds.Columns))
	for i, col := range ds.Columns {
		clean := dataset.NormalizeColumn(col)
		out.Columns[i] = clean
		renames[col] = clean
	}
	for i, rec := range ds.Rows {
		clean := make(dataset.Record, len(rec))
		for k, v := range rec {
			clean[renames[k]] = v
		}
		out.Rows[i] = clean
	}
	return out
}

// ConvertTypes coerces each schema-typed column present in the dataset.
// Numeric columns become floats; integer columns become nullable integers.
// Non-parseable values become null, never a sentinel.
func (t *Transformer) ConvertTypes(ds dataset.Dataset, sc schema.Schema) dataset.Dataset {
	out := ds.Clone()
	for _, tc := range sc.Typed {
		if !out.HasColumn(tc.Name) {
			continue
		}
		for _, rec := range out.Rows {
			val := rec[tc.Name]
			if val.IsNull() {
				continue
			}
			f, ok := val.Numeric()
			if !ok {
				rec[tc.Name] = dataset.Null()
				continue
			}
			switch tc.Type {
			case schema.TypeInteger:
				// Only whole numbers survive into an integer column.
				if f != math.Trunc(f) {
					rec[tc.Name] = dataset.Null()
				} else {
					rec[tc.Name] = dataset.Int(int64(f))
				}
			case schema.TypeNumeric:
				rec[tc.Name] = dataset.Float(f)
			}
		}
	}
	return out
}

// RepairMissing fills specific non-critical missing values:
// Drivetrain Type nulls become "Unknown", and the J.D. Power columns are
// filled with the column's median over this dataset's non-null numeric
// values. A column with no non-null values keeps its nulls.
func (t *Transformer) RepairMissing(ds dataset.Dataset) dataset.Dataset {
	out := ds.Clone()

	if out.HasColumn(drivetrainColumn) {
		filled := 0
		for _, rec := range out.Rows {
			if rec[drivetrainColumn].IsNull() {
				rec[drivetrainColumn] = dataset.Text("Unknown")
				filled++
			}
		}
		if filled > 0 {
			t.log.Debug("filled missing drivetrain values", "count", filled)
		}
	}

	for _, col := range medianFillColumns {
		if !out.HasColumn(col) {
			continue
		}
		med, ok := columnMedian(out, col)
		if !ok {
			continue
		}
		for _, rec := range out.Rows {
			if rec[col].IsNull() {
				rec[col] = dataset.Float(med)
			}
		}
	}

	return out
}

// FormatForUpload applies the final shaping pass before records reach the
// upload boundary: VIN is forced to text, and characters outside the
// allowed set are replaced with spaces in known text columns.
func (t *Transformer) FormatForUpload(ds dataset.Dataset) dataset.Dataset {
	out := ds.Clone()

	if out.HasColumn(vinColumn) {
		for _, rec := range out.Rows {
			val := rec[vinColumn]
			if !val.IsNull() && val.Kind != dataset.KindText {
				rec[vinColumn] = dataset.Text(val.StringForm())
			}
		}
	}

	for _, col := range uploadTextColumns {
		if !out.HasColumn(col) {
			continue
		}
		for _, rec := range out.Rows {
			val := rec[col]
			if val.Kind != dataset.KindText {
				continue
			}
			cleaned := uploadCharRegex.ReplaceAllString(val.Str, " ")
			if cleaned != val.Str {
				rec[col] = dataset.Text(cleaned)
			}
		}
	}

	return out
}

// columnMedian computes the median of a column's non-null numeric values.
// ok is false when the column holds no numeric values at all.
func columnMedian(ds dataset.Dataset, col string) (float64, bool) {
	var vals []float64
	for _, rec := range ds.Rows {
		if f, ok := rec[col].Numeric(); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}
