package domain

import "fmt"

// DataError covers missing/corrupt bars, too-short history, or
// non-monotonic timestamps. Always recovered locally into a Rejection;
// never propagated past the instrument boundary that raised it.
type DataError struct {
	Ticker string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error for %s: %s", e.Ticker, e.Reason)
}

// IndicatorError covers a degenerate indicator window (e.g. std=0 from a
// run of identical prices). Recovered by returning conservative defaults;
// the pipeline continues with those defaults.
type IndicatorError struct {
	Ticker    string
	Indicator string
	Reason    string
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("indicator error for %s (%s): %s", e.Ticker, e.Indicator, e.Reason)
}

// DetectionError marks a detector invariant violation. Logged; the
// offending detector simply contributes no situations for that run.
type DetectionError struct {
	Ticker   string
	Detector string
	Reason   string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection error for %s (%s): %s", e.Ticker, e.Detector, e.Reason)
}

// EvaluationError marks a degenerate evaluation input, e.g. the
// permutation sampler producing a degenerate distribution. The affected
// pattern is simply treated as not statistically significant.
type EvaluationError struct {
	Ticker string
	Reason string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for %s: %s", e.Ticker, e.Reason)
}

// ConfigError is fatal: it must fail the run before any instrument work
// starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// InternalInvariantError marks an unreachable-state check that fired. It
// is fatal and must surface with diagnostic context rather than be
// swallowed.
type InternalInvariantError struct {
	Reason string
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Reason)
}

// CancellationRequested signals a cooperative cancellation was observed.
type CancellationRequested struct{}

func (e *CancellationRequested) Error() string { return "run cancellation requested" }

// TimeoutExpired signals an instrument exceeded its per-instrument
// wall-clock budget.
type TimeoutExpired struct {
	Ticker string
}

func (e *TimeoutExpired) Error() string {
	return fmt.Sprintf("timeout expired for %s", e.Ticker)
}
