package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opskit/toolbox/internal/engine"
	"github.com/opskit/toolbox/internal/logger"
	"github.com/opskit/toolbox/internal/registry"
)

// Run launches the interactive toolbox window and blocks until the user
// quits. An in-flight run is allowed to finish before Run returns so the
// run cache stays truthful.
func Run(reg *registry.Registry, cache *registry.RunCache, runner *engine.Runner, log *logger.Logger) error {
	model := NewModel(reg, cache, runner, log)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run toolbox window: %w", err)
	}

	runner.Wait()
	return nil
}
