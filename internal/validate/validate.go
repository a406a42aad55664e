// Package validate implements the rule engine that inspects a tabular
// inventory dataset for structural and semantic defects.
//
// Rules are independent and order-insensitive:
//  1. Missing values in required columns
//  2. Type conformance for schema-typed columns
//  3. Price below unit cost
//  4. Embedded newlines in column names
//  5. Disallowed characters in the Class column
//
// A rule silently no-ops when its target column is absent from the
// dataset; a missing column is never itself reported as an issue.
package validate

import (
	"log/slog"
	"regexp"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/schema"
)

// Column names rule 3 and rule 5 key on, in normalized form.
const (
	priceColumn = "Price"
	costColumn  = "Unit Cost"
	classColumn = "Class"
)

// specialCharRegex matches any character outside letters, digits,
// whitespace, and comma.
var specialCharRegex = regexp.MustCompile(`[^a-zA-Z0-9\s,]`)

// Validator inspects datasets against a fixed rule set.
type Validator struct {
	log *slog.Logger
}

// New creates a Validator. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{log: log}
}

// Validate runs every rule against the dataset and returns whether
// validation passed along with the full issue report.
//
// The dataset is expected in its raw, pre-cleaned form: rules 1-3 and 5
// match columns by normalized name so wrapped headers still resolve, while
// rule 4 reports the original names that carry embedded newlines.
func (v *Validator) Validate(ds dataset.Dataset, sc schema.Schema) (bool, IssueReport) {
	var report IssueReport

	v.checkMissingValues(ds, sc, &report)
	v.checkDataTypes(ds, sc, &report)
	v.checkPriceBelowCost(ds, &report)
	v.checkColumnNames(ds, &report)
	v.checkSpecialCharacters(ds, &report)

	passed := report.Empty()
	if !passed {
		v.log.Debug("validation found issues",
			"missing_values", len(report.MissingValues),
			"data_type_issues", len(report.DataTypeIssues),
			"price_below_cost", len(report.PriceBelowCost),
			"column_name_issues", len(report.ColumnNameIssues),
			"special_character_issues", len(report.SpecialCharacterIssues),
		)
	}
	return passed, report
}

// checkMissingValues collects, per required column present in the dataset,
// the rows whose value is null. Columns absent from the dataset are skipped.
func (v *Validator) checkMissingValues(ds dataset.Dataset, sc schema.Schema, report *IssueReport) {
	for _, required := range sc.Required {
		col, ok := ds.ResolveColumn(required)
		if !ok {
			continue
		}
		var rows []int
		for i, rec := range ds.Rows {
			if rec[col].IsNull() {
				rows = append(rows, i)
			}
		}
		if len(rows) > 0 {
			report.MissingValues = append(report.MissingValues, ColumnRows{
				Column: required,
				Rows:   rows,
			})
		}
	}
}

// checkDataTypes records one entry per schema-typed column that contains
// non-conforming values. Integer columns require a bare decimal integer
// string form; numeric columns require a parseable float. Null values
// never fail.
func (v *Validator) checkDataTypes(ds dataset.Dataset, sc schema.Schema, report *IssueReport) {
	for _, tc := range sc.Typed {
		col, ok := ds.ResolveColumn(tc.Name)
		if !ok {
			continue
		}

		var rows []int
		for i, rec := range ds.Rows {
			val := rec[col]
			if val.IsNull() {
				continue
			}
			switch tc.Type {
			case schema.TypeInteger:
				if !val.IntegerForm() {
					rows = append(rows, i)
				}
			case schema.TypeNumeric:
				if _, numOK := val.Numeric(); !numOK {
					rows = append(rows, i)
				}
			}
		}
		if len(rows) > 0 {
			report.DataTypeIssues = append(report.DataTypeIssues, TypeIssue{
				Column:   tc.Name,
				Expected: tc.Type.String(),
				Rows:     rows,
			})
		}
	}
}

// checkPriceBelowCost flags rows where Price < Unit Cost after numeric
// coercion. Rows where either side is null or non-parseable are skipped.
// The category stores raw row indices, not per-column entries.
func (v *Validator) checkPriceBelowCost(ds dataset.Dataset, report *IssueReport) {
	priceCol, priceOK := ds.ResolveColumn(priceColumn)
	costCol, costOK := ds.ResolveColumn(costColumn)
	if !priceOK || !costOK {
		return
	}

	for i, rec := range ds.Rows {
		price, ok1 := rec[priceCol].Numeric()
		cost, ok2 := rec[costCol].Numeric()
		if ok1 && ok2 && price < cost {
			report.PriceBelowCost = append(report.PriceBelowCost, i)
		}
	}
}

// checkColumnNames reports every original column name containing an
// embedded newline. Detection runs on the pre-cleaned names, before the
// transformer normalizes them.
func (v *Validator) checkColumnNames(ds dataset.Dataset, report *IssueReport) {
	for _, col := range ds.Columns {
		if col != dataset.NormalizeColumn(col) {
			report.ColumnNameIssues = append(report.ColumnNameIssues, col)
		}
	}
}

// checkSpecialCharacters flags rows whose Class value contains a character
// outside letters, digits, whitespace, or comma. Null values never match.
func (v *Validator) checkSpecialCharacters(ds dataset.Dataset, report *IssueReport) {
	col, ok := ds.ResolveColumn(classColumn)
	if !ok {
		return
	}

	var rows []int
	for i, rec := range ds.Rows {
		val := rec[col]
		if val.IsNull() {
			continue
		}
		if specialCharRegex.MatchString(val.StringForm()) {
			rows = append(rows, i)
		}
	}
	if len(rows) > 0 {
		report.SpecialCharacterIssues = append(report.SpecialCharacterIssues, ColumnRows{
			Column: classColumn,
			Rows:   rows,
		})
	}
}
