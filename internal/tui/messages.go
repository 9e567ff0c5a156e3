package tui

import (
	"github.com/opskit/toolbox/internal/engine"
	"github.com/opskit/toolbox/internal/provision"
)

// ViewMode determines which screen to render.
type ViewMode int

const (
	ViewMain ViewMode = iota
	ViewPicking
	ViewHelp
)

// promptFileMsg asks the UI to collect one required input from the user.
type promptFileMsg struct {
	Request provision.FileRequest
}

// provisionDoneMsg reports the end of a provisioning pass: either a complete
// RunRequest or the error (usually a CancelledError) that abandoned it.
type provisionDoneMsg struct {
	Request *provision.RunRequest
	Err     error
}

// runFinishedMsg carries a run's outcome back onto the UI loop.
type runFinishedMsg struct {
	Outcome engine.Outcome
}

// cacheSavedMsg reports that a run summary was persisted.
type cacheSavedMsg struct {
	Plugin string
}

// cacheErrorMsg reports a failed cache write; display-only, never fatal.
type cacheErrorMsg struct {
	Err error
}
