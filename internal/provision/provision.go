// Package provision resolves a plugin's declared input requirements to
// concrete file paths before a run. How a file is actually chosen, whether by
// an interactive picker, command-line flags or a scripted test double, is behind
// the Selector interface.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opskit/toolbox/internal/metadata"
	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

// ErrCancelled is returned by a Selector when the user backs out of a
// prompt. Provision converts it into a CancelledError naming the
// requirement that was abandoned.
var ErrCancelled = errors.New("file selection cancelled")

// FileRequest describes one input the user is being asked for.
type FileRequest struct {
	Key     string
	Label   string
	Pattern string
}

// Selector supplies a path for one required input. Implementations block
// until the user decides; returning ErrCancelled (or an empty path) aborts
// the whole provisioning pass.
type Selector interface {
	SelectFile(ctx context.Context, req FileRequest) (string, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, req FileRequest) (string, error)

// SelectFile implements Selector.
func (f SelectorFunc) SelectFile(ctx context.Context, req FileRequest) (string, error) {
	return f(ctx, req)
}

// RunRequest is the resolved set of input paths for one invocation of one
// plugin. Paths holds exactly one entry per declared required-file key.
type RunRequest struct {
	Plugin string
	Paths  map[string]string
}

// Provision walks the plugin's required_files in declaration order, asking
// the selector for each one. Cancelling any single prompt abandons the
// entire pass: no partial RunRequest ever escapes and nothing is executed.
func Provision(ctx context.Context, meta *metadata.Metadata, sel Selector) (*RunRequest, error) {
	req := &RunRequest{
		Plugin: meta.Name,
		Paths:  make(map[string]string, meta.RequiredFiles.Len()),
	}

	for _, entry := range meta.RequiredFiles.Entries() {
		path, err := sel.SelectFile(ctx, FileRequest{
			Key:     entry.Key,
			Label:   entry.Label,
			Pattern: meta.Filter(entry.Key),
		})
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return nil, toolboxerrors.NewCancelledError(entry.Key, entry.Label)
			}
			return nil, fmt.Errorf("selecting %s: %w", entry.Label, err)
		}
		if path == "" {
			return nil, toolboxerrors.NewCancelledError(entry.Key, entry.Label)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("selected path for %s: %w", entry.Label, err)
		}

		req.Paths[entry.Key] = path
	}

	return req, nil
}
