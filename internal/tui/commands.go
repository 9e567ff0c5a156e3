package tui

import (
	"regexp"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opskit/toolbox/internal/engine"
	"github.com/opskit/toolbox/internal/registry"
)

// awaitOutcomeCmd blocks on a run's outcome channel and marshals the result
// back onto the UI loop. Exactly one runFinishedMsg per started run.
func awaitOutcomeCmd(ch <-chan engine.Outcome) tea.Cmd {
	return func() tea.Msg {
		return runFinishedMsg{Outcome: <-ch}
	}
}

// saveRunToCacheCmd persists a run summary for the plugin list.
func saveRunToCacheCmd(cache *registry.RunCache, outcome engine.Outcome) tea.Cmd {
	return func() tea.Msg {
		status := registry.RunSuccess
		if outcome.Failed() {
			status = registry.RunFailed
		}
		cache.Set(outcome.Plugin, registry.CachedRun{
			Status:      status,
			Summary:     outcome.Summary(),
			CompletedAt: time.Now(),
		})
		if err := cache.Save(); err != nil {
			return cacheErrorMsg{Err: err}
		}
		return cacheSavedMsg{Plugin: outcome.Plugin}
	}
}

var extensionPattern = regexp.MustCompile(`\*(\.[A-Za-z0-9]+)`)

// allowedTypes extracts file extensions from a header filter pattern such
// as "*.csv" or "Excel Files (*.xlsx *.xls)". An empty result means the
// picker stays unrestricted.
func allowedTypes(pattern string) []string {
	matches := extensionPattern.FindAllStringSubmatch(pattern, -1)
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, match[1])
	}
	return out
}
