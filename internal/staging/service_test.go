package staging

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dealerops/invstage/internal/config"
)

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxFileSize:   1 << 20,
		SkipFlagged:   true,
		MaxRunHistory: 100,
	}
}

const sampleCSV = "Year,Stock #,VIN,Make,Model,Price,Unit Cost\n" +
	"2021,A100,1FTEW1EP5MKD12345,Ford,F-150,42000,38000\n" +
	"2019,A101,,Toyota,Camry,24000,21000\n" +
	"2020,A102,4T1BF1FK5HU123456,Honda,Civic,18000,19500\n"

// ----------------------------------------------------------------------------
// ProcessFile
// ----------------------------------------------------------------------------

func TestProcessFile(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	run, err := svc.ProcessFile(context.Background(), "inventory.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if !run.Outcome.Success {
		t.Fatalf("run failed: %s", run.Outcome.ErrorMessage)
	}
	if run.Outcome.RecordsProcessed != 3 {
		t.Errorf("RecordsProcessed = %d, want 3", run.Outcome.RecordsProcessed)
	}
	// Row 1 misses its VIN, row 2 prices below cost.
	if run.Outcome.RecordsWithIssues != 2 {
		t.Errorf("RecordsWithIssues = %d, want 2", run.Outcome.RecordsWithIssues)
	}
	if run.Upload.RecordsUploaded != 1 {
		t.Errorf("RecordsUploaded = %d, want the single clean record", run.Upload.RecordsUploaded)
	}
	if run.Outcome.Report == "" {
		t.Error("run has no validation report")
	}
	if !strings.Contains(run.Summary, "# Inventory Processing Summary Report") {
		t.Errorf("Summary = %q", run.Summary)
	}

	got, ok := svc.GetRun(run.ID)
	if !ok {
		t.Fatal("run not registered")
	}
	if got.FileName != "inventory.csv" {
		t.Errorf("FileName = %q", got.FileName)
	}
}

func TestProcessFileUnreadable(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	run, err := svc.ProcessFile(context.Background(), "inventory.csv", nil)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if run.Outcome.Success {
		t.Error("empty file should produce a failed run")
	}
	if run.Outcome.ErrorMessage != "the inventory file is empty" {
		t.Errorf("ErrorMessage = %q", run.Outcome.ErrorMessage)
	}
	// Failed runs are still registered for later inspection.
	if _, ok := svc.GetRun(run.ID); !ok {
		t.Error("failed run not registered")
	}
}

func TestProcessFileIncludeAll(t *testing.T) {
	cfg := testConfig()
	cfg.SkipFlagged = false
	svc := NewService(cfg, nil, nil)

	run, err := svc.ProcessFile(context.Background(), "inventory.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if run.Upload.RecordsUploaded != 3 {
		t.Errorf("RecordsUploaded = %d, want all 3", run.Upload.RecordsUploaded)
	}
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestRunHistoryEviction(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRunHistory = 3
	svc := NewService(cfg, nil, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("batch-%d.csv", i)
		run, err := svc.ProcessFile(context.Background(), name, []byte(sampleCSV))
		if err != nil {
			t.Fatalf("ProcessFile(%s): %v", name, err)
		}
		ids = append(ids, run.ID)
	}

	runs := svc.ListRuns()
	if len(runs) != 3 {
		t.Fatalf("ListRuns = %d runs, want 3", len(runs))
	}
	// Newest first.
	if runs[0].ID != ids[4] || runs[2].ID != ids[2] {
		t.Errorf("ListRuns order = [%s %s %s], want newest first", runs[0].ID, runs[1].ID, runs[2].ID)
	}
	for _, evicted := range ids[:2] {
		if _, ok := svc.GetRun(evicted); ok {
			t.Errorf("run %s should have been evicted", evicted)
		}
	}
}

func TestAcceptsFile(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	tests := []struct {
		name string
		want bool
	}{
		{name: "inventory.csv", want: true},
		{name: "inventory.TSV", want: true},
		{name: "inventory.txt", want: true},
		{name: "inventory.xlsx", want: false},
		{name: "inventory", want: false},
	}
	for _, tt := range tests {
		if got := svc.AcceptsFile(tt.name); got != tt.want {
			t.Errorf("AcceptsFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
