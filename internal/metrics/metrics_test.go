package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics
func TestMetricsInit(t *testing.T) {
	Init()
	Init()
	Init()

	// Touch the vec so it is exported
	RunsTotal.WithLabelValues(OutcomeDeclined)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"nestcleaner_files_trashed_total",
		"nestcleaner_files_skipped_total",
		"nestcleaner_files_failed_total",
		"nestcleaner_files_dry_run_total",
		"nestcleaner_runs_total",
		"nestcleaner_run_duration_seconds",
		"nestcleaner_last_run_timestamp",
		"nestcleaner_list_size",
		"nestcleaner_persist_errors_total",
		"nestcleaner_history_errors_total",
	}

	foundMetrics := make(map[string]bool)
	for _, mf := range mfs {
		foundMetrics[mf.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !foundMetrics[expected] {
			t.Errorf("Expected metric %s not found in registry", expected)
		}
	}
}

// TestRecordRun verifies counters move by the run totals
func TestRecordRun(t *testing.T) {
	trashed := testutil.ToFloat64(FilesTrashedTotal)
	skipped := testutil.ToFloat64(FilesSkippedTotal)
	failed := testutil.ToFloat64(FilesFailedTotal)
	completed := testutil.ToFloat64(RunsTotal.WithLabelValues(OutcomeCompleted))

	RecordRun(3, 2, 1, false, 15*time.Millisecond)

	if got := testutil.ToFloat64(FilesTrashedTotal) - trashed; got != 3 {
		t.Errorf("Expected trashed +3, got %v", got)
	}
	if got := testutil.ToFloat64(FilesSkippedTotal) - skipped; got != 2 {
		t.Errorf("Expected skipped +2, got %v", got)
	}
	if got := testutil.ToFloat64(FilesFailedTotal) - failed; got != 1 {
		t.Errorf("Expected failed +1, got %v", got)
	}
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues(OutcomeCompleted)) - completed; got != 1 {
		t.Errorf("Expected completed runs +1, got %v", got)
	}
	if testutil.ToFloat64(LastRunTimestamp) == 0 {
		t.Error("LastRunTimestamp should be set")
	}
}

// TestRecordDryRun verifies dry runs never count as trashed files
func TestRecordDryRun(t *testing.T) {
	trashed := testutil.ToFloat64(FilesTrashedTotal)
	dry := testutil.ToFloat64(FilesDryRunTotal)

	RecordRun(4, 0, 0, true, time.Millisecond)

	if got := testutil.ToFloat64(FilesTrashedTotal) - trashed; got != 0 {
		t.Errorf("Dry run must not move trashed counter, got +%v", got)
	}
	if got := testutil.ToFloat64(FilesDryRunTotal) - dry; got != 4 {
		t.Errorf("Expected dry-run +4, got %v", got)
	}
}

// TestSimpleHelpers verifies gauge and counter helpers
func TestSimpleHelpers(t *testing.T) {
	SetListSize(7)
	if got := testutil.ToFloat64(ListSize); got != 7 {
		t.Errorf("Expected list size 7, got %v", got)
	}

	before := testutil.ToFloat64(PersistErrorsTotal)
	RecordPersistError()
	if got := testutil.ToFloat64(PersistErrorsTotal) - before; got != 1 {
		t.Errorf("Expected persist errors +1, got %v", got)
	}

	before = testutil.ToFloat64(RunsTotal.WithLabelValues(OutcomeEmptyList))
	RecordBlockedRun(OutcomeEmptyList)
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues(OutcomeEmptyList)) - before; got != 1 {
		t.Errorf("Expected empty_list runs +1, got %v", got)
	}
}

// TestHandlerEndpoints verifies /health and /metrics respond
func TestHandlerEndpoints(t *testing.T) {
	Init()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"healthy":true`) {
		t.Errorf("Unexpected /health response %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "nestcleaner_list_size") {
		t.Errorf("/metrics missing nestcleaner_list_size")
	}
}

// TestStandardBuckets verifies the duration buckets are ascending
func TestStandardBuckets(t *testing.T) {
	for i := 1; i < len(DurationBuckets); i++ {
		if DurationBuckets[i] <= DurationBuckets[i-1] {
			t.Errorf("Duration buckets not ascending at %d: %v", i, DurationBuckets)
		}
	}
}
