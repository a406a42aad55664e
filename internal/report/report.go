// Package report renders human-readable markdown reports from pipeline
// outcomes. Rendering is purely derived; nothing here mutates an outcome.
package report

import (
	"fmt"
	"strings"

	"github.com/dealerops/invstage/internal/pipeline"
	"github.com/dealerops/invstage/internal/upload"
	"github.com/dealerops/invstage/internal/validate"
)

// Validation renders the per-category validation report.
func Validation(issues validate.IssueReport, totalRecords int) string {
	var b strings.Builder
	b.WriteString("# Inventory Data Validation Report\n\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total records: %d\n", totalRecords)
	fmt.Fprintf(&b, "- Total issues found: %d\n\n", issues.TotalEntries())

	if len(issues.MissingValues) > 0 {
		b.WriteString("## Missing Values\n")
		for _, issue := range issues.MissingValues {
			fmt.Fprintf(&b, "- Field '%s' has %d missing values (rows: %v)\n",
				issue.Column, len(issue.Rows), issue.Rows)
		}
		b.WriteString("\n")
	}

	if len(issues.DataTypeIssues) > 0 {
		b.WriteString("## Data Type Issues\n")
		for _, issue := range issues.DataTypeIssues {
			fmt.Fprintf(&b, "- Field '%s' has values that cannot be converted to %s (rows: %v)\n",
				issue.Column, issue.Expected, issue.Rows)
		}
		b.WriteString("\n")
	}

	if len(issues.PriceBelowCost) > 0 {
		b.WriteString("## Price Below Cost\n")
		fmt.Fprintf(&b, "- %d records have Price less than Unit Cost (rows: %v)\n\n",
			len(issues.PriceBelowCost), issues.PriceBelowCost)
	}

	if len(issues.ColumnNameIssues) > 0 {
		b.WriteString("## Column Name Issues\n")
		fmt.Fprintf(&b, "- %d columns have newline characters: %q\n\n",
			len(issues.ColumnNameIssues), issues.ColumnNameIssues)
	}

	if len(issues.SpecialCharacterIssues) > 0 {
		b.WriteString("## Special Character Issues\n")
		for _, issue := range issues.SpecialCharacterIssues {
			fmt.Fprintf(&b, "- Field '%s' has special characters in %d rows (rows: %v)\n",
				issue.Column, len(issue.Rows), issue.Rows)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Summary renders the processing summary for a completed (or failed) run,
// embedding the detailed validation report when present.
func Summary(o pipeline.Outcome, u upload.Result) string {
	var b strings.Builder
	b.WriteString("# Inventory Processing Summary Report\n\n")

	b.WriteString("## Processing Status\n")
	fmt.Fprintf(&b, "- Success: %s\n", yesNo(o.Success))
	if o.ErrorMessage != "" {
		fmt.Fprintf(&b, "- Error: %s\n", o.ErrorMessage)
	}
	fmt.Fprintf(&b, "- Records Processed: %d\n", o.RecordsProcessed)
	fmt.Fprintf(&b, "- Records with Issues: %d\n\n", o.RecordsWithIssues)

	b.WriteString("## Validation Status\n")
	fmt.Fprintf(&b, "- Validation Passed: %s\n\n", yesNo(o.ValidationPassed))

	b.WriteString("## Upload Status\n")
	fmt.Fprintf(&b, "- Records Uploaded: %d\n", u.RecordsUploaded)
	fmt.Fprintf(&b, "- Records Failed: %d\n\n", u.RecordsFailed)

	if !o.Issues.Empty() {
		b.WriteString("## Validation Issues Summary\n")
		writeCategoryCount(&b, "Missing Values", len(o.Issues.MissingValues))
		writeCategoryCount(&b, "Data Type Issues", len(o.Issues.DataTypeIssues))
		writeCategoryCount(&b, "Price Below Cost", len(o.Issues.PriceBelowCost))
		writeCategoryCount(&b, "Column Name Issues", len(o.Issues.ColumnNameIssues))
		writeCategoryCount(&b, "Special Character Issues", len(o.Issues.SpecialCharacterIssues))
		b.WriteString("\n")
	}

	if o.Report != "" {
		b.WriteString(o.Report)
	}

	return b.String()
}

func writeCategoryCount(b *strings.Builder, label string, n int) {
	if n > 0 {
		fmt.Fprintf(b, "- %s: %d issues\n", label, n)
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
