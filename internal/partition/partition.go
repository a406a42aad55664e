// Package partition annotates each record with its accumulated issue
// reasons and splits the dataset into clean and flagged subsets according
// to the configured policy.
package partition

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/validate"
)

// Policy controls how flagged records are handled at the split.
type Policy struct {
	// SkipFlagged excludes records with issues from the clean partition.
	// When false, every record lands in the clean partition and the
	// annotations remain visible for downstream inspection.
	SkipFlagged bool `json:"skipFlagged"`
}

// DefaultPolicy skips flagged records.
func DefaultPolicy() Policy {
	return Policy{SkipFlagged: true}
}

// Annotation is the per-record issue marker derived from the issue report.
// It is computed once per run and never written back into source data.
type Annotation struct {
	HasIssues bool   `json:"hasIssues"`
	Reasons   string `json:"reasons,omitempty"`
}

// Partitioner splits datasets around their validation issues.
type Partitioner struct {
	log *slog.Logger
}

// New creates a Partitioner. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Partitioner {
	if log == nil {
		log = slog.Default()
	}
	return &Partitioner{log: log}
}

// Annotate builds one Annotation per record from the issue report.
// Reasons accumulate in category order: missing values, type issues,
// price below cost, special characters. Column-name issues are
// column-scoped and never appear in per-row reasons.
func (p *Partitioner) Annotate(n int, issues validate.IssueReport) []Annotation {
	anns := make([]Annotation, n)

	mark := func(row int, reason string) {
		if row < 0 || row >= n {
			return
		}
		anns[row].HasIssues = true
		anns[row].Reasons += reason
	}

	for _, issue := range issues.MissingValues {
		for _, row := range issue.Rows {
			mark(row, fmt.Sprintf("Missing %s; ", issue.Column))
		}
	}
	for _, issue := range issues.DataTypeIssues {
		for _, row := range issue.Rows {
			mark(row, fmt.Sprintf("Invalid %s format; ", issue.Column))
		}
	}
	for _, row := range issues.PriceBelowCost {
		mark(row, "Price below cost; ")
	}
	for _, issue := range issues.SpecialCharacterIssues {
		for _, row := range issue.Rows {
			mark(row, fmt.Sprintf("Special characters in %s; ", issue.Column))
		}
	}

	for i := range anns {
		anns[i].Reasons = strings.TrimRight(anns[i].Reasons, " ")
	}
	return anns
}

// AnnotateAndSplit annotates every record and partitions the dataset.
// Under the skip-flagged policy the clean partition holds every record
// without issues and the flagged partition holds the rest; clean and
// flagged together cover the original row set exactly once. Under the
// include-all policy no split occurs.
func (p *Partitioner) AnnotateAndSplit(ds dataset.Dataset, issues validate.IssueReport, policy Policy) (clean, flagged dataset.Dataset, anns []Annotation) {
	anns = p.Annotate(ds.Len(), issues)

	if !policy.SkipFlagged {
		return ds.Clone(), dataset.Dataset{Columns: append([]string(nil), ds.Columns...)}, anns
	}

	var cleanRows, flaggedRows []int
	for i, ann := range anns {
		if ann.HasIssues {
			flaggedRows = append(flaggedRows, i)
		} else {
			cleanRows = append(cleanRows, i)
		}
	}

	clean = ds.Select(cleanRows)
	flagged = ds.Select(flaggedRows)

	if len(flaggedRows) > 0 {
		p.log.Info("skipped records with issues",
			"flagged", len(flaggedRows),
			"clean", len(cleanRows),
		)
	}
	return clean, flagged, anns
}
