package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes for RunsTotal
const (
	OutcomeCompleted     = "completed"
	OutcomeMissingTarget = "missing_target"
	OutcomeEmptyList     = "empty_list"
	OutcomeDeclined      = "declined"
)

// Collectors are built eagerly so callers never see nil before Init
var (
	// FilesTrashedTotal tracks files moved to the trash
	FilesTrashedTotal = NewCounter(
		"nestcleaner_files_trashed_total",
		"Total number of files moved to the trash.",
	)

	// FilesSkippedTotal tracks listed files that were not present
	FilesSkippedTotal = NewCounter(
		"nestcleaner_files_skipped_total",
		"Total number of listed files not found in the target folder.",
	)

	// FilesFailedTotal tracks files whose trash operation failed or was refused
	FilesFailedTotal = NewCounter(
		"nestcleaner_files_failed_total",
		"Total number of files that could not be moved to the trash.",
	)

	// FilesDryRunTotal tracks files a dry run would have trashed
	FilesDryRunTotal = NewCounter(
		"nestcleaner_files_dry_run_total",
		"Total number of files counted by dry runs without being trashed.",
	)

	RunsTotal = NewCounterVec(
		"nestcleaner_runs_total",
		"Cleanup requests by outcome.",
		[]string{"outcome"},
	)

	RunDuration = NewDurationHistogram(
		"nestcleaner_run_duration_seconds",
		"Duration of cleanup runs in seconds.",
	)

	LastRunTimestamp = NewGauge(
		"nestcleaner_last_run_timestamp",
		"Timestamp of the last completed cleanup run (Unix epoch seconds).",
	)

	// ListSize tracks the number of filenames currently listed
	ListSize = NewGauge(
		"nestcleaner_list_size",
		"Number of filenames in the cleanup list.",
	)

	PersistErrorsTotal = NewCounter(
		"nestcleaner_persist_errors_total",
		"Total number of failed settings writes.",
	)

	HistoryErrorsTotal = NewCounter(
		"nestcleaner_history_errors_total",
		"Total number of failed history database writes.",
	)
)

func registerCleanupMetrics(reg prometheus.Registerer) {
	reg.MustRegister(FilesTrashedTotal)
	reg.MustRegister(FilesSkippedTotal)
	reg.MustRegister(FilesFailedTotal)
	reg.MustRegister(FilesDryRunTotal)
	reg.MustRegister(RunsTotal)
	reg.MustRegister(RunDuration)
	reg.MustRegister(LastRunTimestamp)
	reg.MustRegister(ListSize)
	reg.MustRegister(PersistErrorsTotal)
	reg.MustRegister(HistoryErrorsTotal)
}

// RecordRun records the totals of a finished run. In dry-run mode deleted
// counts files that would have been trashed.
func RecordRun(deleted, skipped, failed int, dryRun bool, elapsed time.Duration) {
	if dryRun {
		FilesDryRunTotal.Add(float64(deleted))
	} else {
		FilesTrashedTotal.Add(float64(deleted))
	}
	FilesSkippedTotal.Add(float64(skipped))
	FilesFailedTotal.Add(float64(failed))
	RunDuration.Observe(elapsed.Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	RunsTotal.WithLabelValues(OutcomeCompleted).Inc()
}

// RecordBlockedRun counts a run request stopped before execution
func RecordBlockedRun(outcome string) {
	RunsTotal.WithLabelValues(outcome).Inc()
}

// SetListSize updates the list size gauge
func SetListSize(n int) {
	ListSize.Set(float64(n))
}

// RecordPersistError counts a failed settings write
func RecordPersistError() {
	PersistErrorsTotal.Inc()
}

// RecordHistoryError counts a failed history write
func RecordHistoryError() {
	HistoryErrorsTotal.Inc()
}
