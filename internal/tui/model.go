package tui

import (
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opskit/toolbox/internal/engine"
	"github.com/opskit/toolbox/internal/logger"
	"github.com/opskit/toolbox/internal/provision"
	"github.com/opskit/toolbox/internal/registry"
)

// Model is the toolbox main window: the plugin list on the left, detail and
// output log on the right, and a file picker taking over while a run's
// inputs are collected.
type Model struct {
	// Core collaborators
	plugins []registry.Plugin
	reg     *registry.Registry
	cache   *registry.RunCache
	runner  *engine.Runner
	log     *logger.Logger

	// UI state
	viewMode ViewMode
	cursor   int
	logLines []string

	// Component state
	spinner spinner.Model
	picker  filepicker.Model

	// Run state. The run trigger stays disabled from the moment a run
	// starts until its outcome is delivered.
	running       bool
	runningPlugin string
	session       *provisionSession
	prompt        provision.FileRequest
	lastPickDir   string

	// Dimensions
	width  int
	height int

	useUnicode bool
}

// NewModel creates the main window model.
func NewModel(reg *registry.Registry, cache *registry.RunCache, runner *engine.Runner, log *logger.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		plugins:    reg.List(),
		reg:        reg,
		cache:      cache,
		runner:     runner,
		log:        log,
		viewMode:    ViewMain,
		lastPickDir: ".",
		spinner:    s,
		useUnicode: true,
		width:      80,
		height:     24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SelectedPlugin returns the plugin under the cursor.
func (m *Model) SelectedPlugin() (registry.Plugin, bool) {
	if m.cursor < 0 || m.cursor >= len(m.plugins) {
		return registry.Plugin{}, false
	}
	return m.plugins[m.cursor], true
}

// Running reports whether a run is in flight.
func (m *Model) Running() bool {
	return m.running
}

// LogLines returns the accumulated output log.
func (m *Model) LogLines() []string {
	return m.logLines
}

// ViewModeNow returns the current view mode.
func (m *Model) ViewModeNow() ViewMode {
	return m.viewMode
}

// lastRun returns the cached last-run summary for a plugin.
func (m *Model) lastRun(name string) (registry.CachedRun, bool) {
	if m.cache == nil {
		return registry.CachedRun{}, false
	}
	return m.cache.Get(name)
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
}

func (m *Model) moveCursorUp() {
	if len(m.plugins) == 0 {
		return
	}
	m.cursor--
	if m.cursor < 0 {
		m.cursor = len(m.plugins) - 1
	}
}

func (m *Model) moveCursorDown() {
	if len(m.plugins) == 0 {
		return
	}
	m.cursor++
	if m.cursor >= len(m.plugins) {
		m.cursor = 0
	}
}

func (m *Model) setCursor(index int) {
	if index >= 0 && index < len(m.plugins) {
		m.cursor = index
	}
}
