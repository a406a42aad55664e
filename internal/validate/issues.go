package validate

import "sort"

// issues.go defines the typed issue report produced by validation.
//
// The categories deliberately carry different shapes: most store one entry
// per column with the affected row indices embedded, while price_below_cost
// and column_name_issues are flat lists. Downstream consumers (the
// partitioner, the report renderer, the store) rely on that distinction.

// ColumnRows records the rows of a single column affected by one rule.
type ColumnRows struct {
	Column string `json:"column"`
	Rows   []int  `json:"rows"`
}

// TypeIssue records rows of a column whose values do not conform to the
// column's expected type.
type TypeIssue struct {
	Column   string `json:"column"`
	Expected string `json:"expectedType"`
	Rows     []int  `json:"rows"`
}

// IssueReport groups every validation failure by category. Validation is
// considered passed iff every category is empty.
type IssueReport struct {
	MissingValues          []ColumnRows `json:"missing_values"`
	DataTypeIssues         []TypeIssue  `json:"data_type_issues"`
	PriceBelowCost         []int        `json:"price_below_cost"`
	ColumnNameIssues       []string     `json:"column_name_issues"`
	SpecialCharacterIssues []ColumnRows `json:"special_character_issues"`
}

// Empty reports whether no category recorded any issue.
func (r IssueReport) Empty() bool {
	return len(r.MissingValues) == 0 &&
		len(r.DataTypeIssues) == 0 &&
		len(r.PriceBelowCost) == 0 &&
		len(r.ColumnNameIssues) == 0 &&
		len(r.SpecialCharacterIssues) == 0
}

// TotalEntries counts issue entries across all categories. Per-column
// categories count entries, not rows, matching how the summary report
// tallies issues.
func (r IssueReport) TotalEntries() int {
	return len(r.MissingValues) +
		len(r.DataTypeIssues) +
		len(r.PriceBelowCost) +
		len(r.ColumnNameIssues) +
		len(r.SpecialCharacterIssues)
}

// AffectedRows returns the sorted union of row indices across the four
// row-scoped categories. column_name_issues is column-scoped and never
// contributes to the per-row count.
func (r IssueReport) AffectedRows() []int {
	seen := make(map[int]struct{})
	for _, issue := range r.MissingValues {
		for _, row := range issue.Rows {
			seen[row] = struct{}{}
		}
	}
	for _, issue := range r.DataTypeIssues {
		for _, row := range issue.Rows {
			seen[row] = struct{}{}
		}
	}
	for _, row := range r.PriceBelowCost {
		seen[row] = struct{}{}
	}
	for _, issue := range r.SpecialCharacterIssues {
		for _, row := range issue.Rows {
			seen[row] = struct{}{}
		}
	}

	rows := make([]int, 0, len(seen))
	for row := range seen {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	return rows
}
