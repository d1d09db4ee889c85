package metrics

import "time"

// OutcomeLabel enumerates run outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailure OutcomeLabel = "failure"
	OutcomeStale   OutcomeLabel = "stale"
)

// Recorder defines observability hooks for generation runs. All methods must
// be safe to call on a nil *PrometheusRecorder.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome OutcomeLabel)
	IncDocument(document, status string)
	SetScannedFiles(n int)
	SetTestCases(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)       {}
func (NoopRecorder) IncDocument(string, string)       {}
func (NoopRecorder) SetScannedFiles(int)              {}
func (NoopRecorder) SetTestCases(int)                 {}
