package errors

import (
	"fmt"
)

// ParseError represents a metadata header that could not be parsed, with
// optional line metadata recovered from the YAML error.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("header parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("header parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures metadata validation issues (missing name, bad
// required_files declarations and the like).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing a plugin's
// entry point. It is always converted to a Failure outcome before it
// reaches the UI layer.
type ExecutionError struct {
	Plugin string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(plugin string, err error) error {
	return &ExecutionError{Plugin: plugin, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Plugin != "" {
		return fmt.Sprintf("execution error in plugin %s: %v", e.Plugin, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PluginError indicates a script that could not be loaded or that does not
// honour the plugin contract (no main function, bad entry point shape).
type PluginError struct {
	Plugin  string
	Message string
	Err     error
}

// NewPluginError constructs a PluginError for the given plugin.
func NewPluginError(plugin string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &PluginError{Plugin: plugin, Message: message, Err: err}
}

func (e *PluginError) Error() string {
	if e == nil {
		return ""
	}
	if e.Plugin != "" {
		return fmt.Sprintf("plugin error [%s]: %s", e.Plugin, e.Message)
	}
	return fmt.Sprintf("plugin error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PluginError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CancelledError reports an abandoned provisioning pass, recording which
// requirement the user backed out of.
type CancelledError struct {
	Key   string
	Label string
}

// NewCancelledError constructs a CancelledError.
func NewCancelledError(key, label string) error {
	return &CancelledError{Key: key, Label: label}
}

func (e *CancelledError) Error() string {
	if e == nil {
		return ""
	}
	if e.Label != "" {
		return fmt.Sprintf("cancelled: missing %s", e.Label)
	}
	return fmt.Sprintf("cancelled: missing %s", e.Key)
}
