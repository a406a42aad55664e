package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dealerops/invstage/internal/config"
	"github.com/dealerops/invstage/internal/staging"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Pipeline.MaxFileSize = 1 << 20
	cfg.Pipeline.SkipFlagged = true
	cfg.Pipeline.MaxRunHistory = 10
	cfg.Rate.Enabled = false

	svc := staging.NewService(cfg.Pipeline, nil, nil)
	return NewServer(svc, cfg)
}

func multipartBody(t *testing.T, fileName, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

const goodCSV = "Year,Stock #,VIN,Make,Model,Price,Unit Cost\n" +
	"2021,A100,1FTEW1EP5MKD12345,Ford,F-150,42000,38000\n" +
	"2019,A101,,Toyota,Camry,24000,26000\n"

func postFile(t *testing.T, srv *Server, fileName, contents string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fileName, contents)
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// ----------------------------------------------------------------------------
// Routes
// ----------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProcessUpload(t *testing.T) {
	srv := testServer(t)

	rec := postFile(t, srv, "inventory.csv", goodCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var run struct {
		ID      string `json:"id"`
		Outcome struct {
			Success           bool `json:"success"`
			RecordsProcessed  int  `json:"recordsProcessed"`
			RecordsWithIssues int  `json:"recordsWithIssues"`
		} `json:"outcome"`
		Upload struct {
			RecordsUploaded int `json:"recordsUploaded"`
		} `json:"upload"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if run.ID == "" {
		t.Error("response has no run ID")
	}
	if !run.Outcome.Success {
		t.Error("run did not succeed")
	}
	if run.Outcome.RecordsProcessed != 2 {
		t.Errorf("RecordsProcessed = %d, want 2", run.Outcome.RecordsProcessed)
	}
	// Second row misses VIN and prices below cost.
	if run.Outcome.RecordsWithIssues != 1 {
		t.Errorf("RecordsWithIssues = %d, want 1", run.Outcome.RecordsWithIssues)
	}
	if run.Upload.RecordsUploaded != 1 {
		t.Errorf("RecordsUploaded = %d, want 1", run.Upload.RecordsUploaded)
	}
}

func TestProcessEmptyFile(t *testing.T) {
	srv := testServer(t)

	rec := postFile(t, srv, "inventory.csv", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "the inventory file is empty") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProcessUnsupportedFormat(t *testing.T) {
	srv := testServer(t)

	rec := postFile(t, srv, "inventory.xlsx", "binary junk")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file format") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProcessNoFile(t *testing.T) {
	srv := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRunLifecycle(t *testing.T) {
	srv := testServer(t)

	rec := postFile(t, srv, "inventory.csv", goodCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}

	// List shows the run.
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	listRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}
	if !strings.Contains(listRec.Body.String(), created.ID) {
		t.Errorf("run %s missing from list", created.ID)
	}

	// Fetch by ID.
	req = httptest.NewRequest(http.MethodGet, "/api/runs/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRec.Code)
	}

	// Markdown report.
	req = httptest.NewRequest(http.MethodGet, "/api/runs/"+created.ID+"/report", nil)
	repRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(repRec, req)
	if repRec.Code != http.StatusOK {
		t.Fatalf("report status = %d", repRec.Code)
	}
	if ct := repRec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("report Content-Type = %q", ct)
	}
	if !strings.Contains(repRec.Body.String(), "# Inventory Processing Summary Report") {
		t.Errorf("report body = %s", repRec.Body.String())
	}

	// Flagged partition carries the failing record with its reasons.
	req = httptest.NewRequest(http.MethodGet, "/api/runs/"+created.ID+"/flagged", nil)
	flagRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(flagRec, req)
	if flagRec.Code != http.StatusOK {
		t.Fatalf("flagged status = %d", flagRec.Code)
	}
	var flagged struct {
		Flagged []struct {
			Reasons string         `json:"reasons"`
			Record  map[string]any `json:"record"`
		} `json:"flagged"`
	}
	if err := json.Unmarshal(flagRec.Body.Bytes(), &flagged); err != nil {
		t.Fatalf("decoding flagged response: %v", err)
	}
	if len(flagged.Flagged) != 1 {
		t.Fatalf("flagged = %d records, want 1", len(flagged.Flagged))
	}
	if !strings.Contains(flagged.Flagged[0].Reasons, "Missing VIN") {
		t.Errorf("reasons = %q", flagged.Flagged[0].Reasons)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{
		"/api/runs/nope",
		"/api/runs/nope/report",
		"/api/runs/nope/flagged",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	// Other clients keep their own bucket.
	if !rl.allow("10.0.0.2") {
		t.Error("distinct IP should not share a bucket")
	}
}
