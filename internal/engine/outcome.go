package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the tagged result of one plugin run. Exactly one Outcome is
// produced per Start call, and either Result or Err is set, never both.
type Outcome struct {
	RunID    uuid.UUID
	Plugin   string
	Result   any
	Err      error
	Duration time.Duration
}

// Failed reports whether the run ended in failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Diagnostic returns the full human-readable failure description, including
// a stack trace when the run ended in a panic. Empty for successful runs.
func (o Outcome) Diagnostic() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Summary renders a one-line account of the outcome for logs and caches.
func (o Outcome) Summary() string {
	if o.Failed() {
		return o.Diagnostic()
	}
	if o.Result == nil {
		return "done"
	}
	return fmt.Sprintf("%v", o.Result)
}
