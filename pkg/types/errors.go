package types

import "fmt"

// UpstreamError reports a failed or unusable language-model call. It is
// fatal to the run; retries, if any, belong to the session layer.
// Timeout distinguishes infra stalls from malformed model output.
type UpstreamError struct {
	Target    string
	Task      string
	Iteration int
	Timeout   bool
	Err       error
}

func (e *UpstreamError) Error() string {
	kind := "upstream error"
	if e.Timeout {
		kind = "upstream timeout"
	}
	return fmt.Sprintf("%s: target %q task %q iteration %d: %v", kind, e.Target, e.Task, e.Iteration, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RenderError reports that one candidate's SVG failed to rasterize.
// The run continues; the candidate is excluded from scoring only.
type RenderError struct {
	Iteration int
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed for iteration %d: %v", e.Iteration, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ScoringError reports that candidate selection cannot proceed: no
// scorable candidates, an unknown scorer variant, or a malformed
// ranking from the reward model. Fatal and not retryable.
type ScoringError struct {
	Reason string
	Err    error
}

func (e *ScoringError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoring: %s: %v", e.Reason, e.Err)
	}
	return "scoring: " + e.Reason
}

func (e *ScoringError) Unwrap() error { return e.Err }

// ConfigError reports an invalid run configuration, rejected before any
// external call is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}
