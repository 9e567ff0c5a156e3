package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

// Update handles incoming messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.Height = m.pickerHeight()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case promptFileMsg:
		return m.handlePrompt(msg)

	case provisionDoneMsg:
		return m.handleProvisionDone(msg)

	case runFinishedMsg:
		return m.handleRunFinished(msg)

	case cacheErrorMsg:
		m.appendLog(mutedLineStyle.Render(fmt.Sprintf("could not save run history: %v", msg.Err)))
		return m, nil

	case cacheSavedMsg:
		return m, nil
	}

	// Everything else (mouse, picker internals) belongs to the active
	// file picker while one is showing.
	if m.viewMode == ViewPicking {
		return m.updatePicker(msg)
	}

	return m, nil
}

// handlePrompt opens the file picker for one required input.
func (m Model) handlePrompt(msg promptFileMsg) (tea.Model, tea.Cmd) {
	m.prompt = msg.Request
	m.viewMode = ViewPicking

	picker := filepicker.New()
	picker.CurrentDirectory = m.lastPickDir
	picker.AllowedTypes = allowedTypes(msg.Request.Pattern)
	picker.Height = m.pickerHeight()
	m.picker = picker

	return m, m.picker.Init()
}

// handleProvisionDone ends the picking phase: either every input resolved
// and the run starts, or the pass was abandoned and the UI says which
// requirement is missing.
func (m Model) handleProvisionDone(msg provisionDoneMsg) (tea.Model, tea.Cmd) {
	m.session = nil
	m.viewMode = ViewMain

	if msg.Err != nil {
		var cancelled *toolboxerrors.CancelledError
		if errors.As(msg.Err, &cancelled) {
			m.appendLog(mutedLineStyle.Render(fmt.Sprintf("Cancelled, missing %s", cancelled.Label)))
		} else {
			m.appendLog(failureLineStyle.Render(fmt.Sprintf("✗ %v", msg.Err)))
		}
		return m, nil
	}

	if m.running {
		// One execution at a time; a request resolved while another run
		// is still in flight is dropped, never queued.
		m.appendLog(mutedLineStyle.Render(fmt.Sprintf("ignoring %s, a run is already in flight", msg.Request.Plugin)))
		return m, nil
	}

	plugin, ok := m.reg.Get(msg.Request.Plugin)
	if !ok {
		m.appendLog(failureLineStyle.Render(fmt.Sprintf("✗ plugin %q vanished from the registry", msg.Request.Plugin)))
		return m, nil
	}

	m.running = true
	m.runningPlugin = plugin.Name()
	m.appendLog("")
	m.appendLog("Running …")

	_, ch := m.runner.Start(context.Background(), plugin, msg.Request)
	return m, tea.Batch(awaitOutcomeCmd(ch), m.spinner.Tick)
}

// handleRunFinished renders the outcome and re-enables the run trigger.
func (m Model) handleRunFinished(msg runFinishedMsg) (tea.Model, tea.Cmd) {
	m.running = false
	m.runningPlugin = ""

	outcome := msg.Outcome
	if outcome.Failed() {
		m.appendLog(failureLineStyle.Render("✗ Failed"))
		// Full diagnostic, never truncated.
		for _, line := range strings.Split(strings.TrimRight(outcome.Diagnostic(), "\n"), "\n") {
			m.appendLog(line)
		}
	} else {
		m.appendLog(successLineStyle.Render(fmt.Sprintf("✓ Done → %v", outcome.Result)))
	}

	return m, saveRunToCacheCmd(m.cache, outcome)
}

// handleKeyPress handles keyboard input based on current view mode.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewMain:
		return m.handleMainKeys(msg)
	case ViewPicking:
		return m.handlePickingKeys(msg)
	case ViewHelp:
		return m.handleHelpKeys(msg)
	default:
		return m, nil
	}
}

func (m Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		m.moveCursorUp()
		return m, nil

	case "down", "j":
		m.moveCursorDown()
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.setCursor(int(msg.String()[0] - '1'))
		return m, nil

	case "enter", "r", " ":
		return m.startRun()

	case "?":
		m.viewMode = ViewHelp
		return m, nil
	}

	return m, nil
}

// startRun kicks off provisioning for the selected plugin, unless a run is
// already in flight; at most one execution per session.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	if m.running || m.session != nil {
		return m, nil
	}

	plugin, ok := m.SelectedPlugin()
	if !ok {
		return m, nil
	}

	m.logLines = nil
	m.appendLog(detailLabelStyle.Render(plugin.Name()))
	for _, entry := range plugin.Meta.RequiredFiles.Entries() {
		m.appendLog(mutedLineStyle.Render("• " + entry.Label))
	}

	session, cmd := startProvision(plugin.Meta)
	m.session = session
	return m, cmd
}

func (m Model) handlePickingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.session != nil {
			return m, m.session.cancel()
		}
		m.viewMode = ViewMain
		return m, nil
	}

	return m.updatePicker(msg)
}

// updatePicker forwards a message to the file picker and reacts to a
// completed selection.
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok && m.session != nil {
		m.lastPickDir = filepath.Dir(path)
		m.appendLog(fmt.Sprintf("%s: %s", m.prompt.Label, path))
		return m, tea.Batch(cmd, m.session.answer(path))
	}

	return m, cmd
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		m.viewMode = ViewMain
		return m, nil
	}
	return m, nil
}

func (m Model) pickerHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}
