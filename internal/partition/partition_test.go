package partition

import (
	"testing"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/validate"
)

func testDataset(n int) dataset.Dataset {
	ds := dataset.Dataset{Columns: []string{"Stock #"}}
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, dataset.Record{"Stock #": dataset.Int(int64(i))})
	}
	return ds
}

// ----------------------------------------------------------------------------
// Annotate
// ----------------------------------------------------------------------------

func TestAnnotateReasonAccumulation(t *testing.T) {
	issues := validate.IssueReport{
		MissingValues: []validate.ColumnRows{
			{Column: "VIN", Rows: []int{0}},
			{Column: "Price", Rows: []int{0}},
		},
		DataTypeIssues: []validate.TypeIssue{
			{Column: "Year", Expected: "integer", Rows: []int{0, 1}},
		},
		PriceBelowCost: []int{1},
		SpecialCharacterIssues: []validate.ColumnRows{
			{Column: "Class", Rows: []int{2}},
		},
		ColumnNameIssues: []string{"Bad\nName"}, // never reflected per-row
	}

	p := New(nil)
	anns := p.Annotate(4, issues)

	tests := []struct {
		row        int
		hasIssues  bool
		wantReason string
	}{
		{row: 0, hasIssues: true, wantReason: "Missing VIN; Missing Price; Invalid Year format;"},
		{row: 1, hasIssues: true, wantReason: "Invalid Year format; Price below cost;"},
		{row: 2, hasIssues: true, wantReason: "Special characters in Class;"},
		{row: 3, hasIssues: false, wantReason: ""},
	}

	for _, tt := range tests {
		ann := anns[tt.row]
		if ann.HasIssues != tt.hasIssues {
			t.Errorf("row %d HasIssues = %v, want %v", tt.row, ann.HasIssues, tt.hasIssues)
		}
		if ann.Reasons != tt.wantReason {
			t.Errorf("row %d Reasons = %q, want %q", tt.row, ann.Reasons, tt.wantReason)
		}
	}
}

func TestAnnotateIgnoresOutOfRangeRows(t *testing.T) {
	issues := validate.IssueReport{
		PriceBelowCost: []int{0, 99},
	}

	p := New(nil)
	anns := p.Annotate(2, issues)

	if !anns[0].HasIssues {
		t.Error("row 0 should be flagged")
	}
	if anns[1].HasIssues {
		t.Error("row 1 should not be flagged")
	}
}

// ----------------------------------------------------------------------------
// AnnotateAndSplit
// ----------------------------------------------------------------------------

func TestSplitSkipFlagged(t *testing.T) {
	ds := testDataset(20)
	issues := validate.IssueReport{
		SpecialCharacterIssues: []validate.ColumnRows{
			{Column: "Class", Rows: []int{2, 5, 7, 11, 13, 17}},
		},
	}

	p := New(nil)
	clean, flagged, anns := p.AnnotateAndSplit(ds, issues, Policy{SkipFlagged: true})

	if clean.Len() != 14 {
		t.Errorf("clean = %d rows, want 14", clean.Len())
	}
	if flagged.Len() != 6 {
		t.Errorf("flagged = %d rows, want 6", flagged.Len())
	}
	if clean.Len()+flagged.Len() != ds.Len() {
		t.Errorf("partitions cover %d rows, want %d", clean.Len()+flagged.Len(), ds.Len())
	}

	// Every flagged row has an annotation with issues; membership is
	// disjoint by stock number.
	seen := map[int64]string{}
	for _, rec := range clean.Rows {
		seen[rec["Stock #"].Int64] = "clean"
	}
	for _, rec := range flagged.Rows {
		if prev, ok := seen[rec["Stock #"].Int64]; ok {
			t.Errorf("row %d in both partitions (%s)", rec["Stock #"].Int64, prev)
		}
		seen[rec["Stock #"].Int64] = "flagged"
	}
	if len(seen) != 20 {
		t.Errorf("union covers %d rows, want 20", len(seen))
	}

	flaggedCount := 0
	for _, ann := range anns {
		if ann.HasIssues {
			flaggedCount++
		}
	}
	if flaggedCount != 6 {
		t.Errorf("annotations flag %d rows, want 6", flaggedCount)
	}
}

func TestSplitIncludeAll(t *testing.T) {
	ds := testDataset(5)
	issues := validate.IssueReport{
		PriceBelowCost: []int{1, 3},
	}

	p := New(nil)
	clean, flagged, anns := p.AnnotateAndSplit(ds, issues, Policy{SkipFlagged: false})

	if clean.Len() != 5 {
		t.Errorf("clean = %d rows, want all 5", clean.Len())
	}
	if flagged.Len() != 0 {
		t.Errorf("flagged = %d rows, want 0", flagged.Len())
	}
	// Flags stay visible in annotations for downstream inspection.
	if !anns[1].HasIssues || !anns[3].HasIssues {
		t.Error("annotations lost under include-all policy")
	}
}

func TestSplitAllRowsFlagged(t *testing.T) {
	ds := testDataset(3)
	issues := validate.IssueReport{
		PriceBelowCost: []int{0, 1, 2},
	}

	p := New(nil)
	clean, flagged, _ := p.AnnotateAndSplit(ds, issues, DefaultPolicy())

	if clean.Len() != 0 {
		t.Errorf("clean = %d rows, want 0", clean.Len())
	}
	if flagged.Len() != 3 {
		t.Errorf("flagged = %d rows, want 3", flagged.Len())
	}
}
