package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opskit/toolbox/internal/registry"
)

// View renders the current screen.
func (m Model) View() string {
	switch m.viewMode {
	case ViewPicking:
		return m.renderPicking()
	case ViewHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Data-Ops Toolbox"))
	b.WriteString("\n")

	if len(m.plugins) == 0 {
		b.WriteString(emptyStateStyle.Width(m.width).Render(
			fmt.Sprintf("No plug-ins found in %s\nDrop a .lua report script there and restart.", m.reg.Dir()),
		))
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
		return b.String()
	}

	listWidth := m.width / 3
	if listWidth < 24 {
		listWidth = 24
	}
	detailWidth := m.width - listWidth - 4
	if detailWidth < 20 {
		detailWidth = 20
	}

	left := m.renderList(listWidth)
	right := m.renderDetail(detailWidth)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderList(width int) string {
	var b strings.Builder

	for i, plugin := range m.plugins {
		icon := m.statusIcon(plugin.Name())
		line := fmt.Sprintf("%s %d. %s", icon, i+1, plugin.Name())

		if i == m.cursor {
			b.WriteString(selectedItemStyle.Width(width).Render(line))
		} else {
			b.WriteString(itemStyle.Width(width).Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) statusIcon(name string) string {
	status := registry.RunUnknown
	if run, ok := m.lastRun(name); ok {
		status = run.Status
	}
	if m.useUnicode {
		return status.Icon()
	}
	return status.IconFallback()
}

func (m Model) renderDetail(width int) string {
	plugin, ok := m.SelectedPlugin()
	if !ok {
		return ""
	}

	var b strings.Builder

	b.WriteString(detailLabelStyle.Render(plugin.Name()))
	b.WriteString("\n")
	if plugin.Meta.Description != "" {
		b.WriteString(plugin.Meta.Description)
		b.WriteString("\n")
	}

	if plugin.Meta.RequiredFiles.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(detailLabelStyle.Render("Inputs"))
		b.WriteString("\n")
		for _, entry := range plugin.Meta.RequiredFiles.Entries() {
			b.WriteString("  • " + entry.Label + "\n")
		}
	}

	if plugin.Meta.Outputs.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(detailLabelStyle.Render("Outputs"))
		b.WriteString("\n")
		for _, entry := range plugin.Meta.Outputs.Entries() {
			b.WriteString("  • " + entry.Label + "\n")
		}
	}

	if run, ok := m.lastRun(plugin.Name()); ok {
		b.WriteString("\n")
		b.WriteString(mutedLineStyle.Render(fmt.Sprintf(
			"Last run: %s (%s)", run.Status, run.CompletedAt.Format("2006-01-02 15:04"),
		)))
		b.WriteString("\n")
	}

	detail := detailBoxStyle.Width(width).Render(b.String())

	log := m.renderLog(width)
	if log == "" {
		return detail
	}
	return lipgloss.JoinVertical(lipgloss.Left, detail, log)
}

func (m Model) renderLog(width int) string {
	if len(m.logLines) == 0 && !m.running {
		return ""
	}

	var b strings.Builder
	for _, line := range m.logLines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.running {
		b.WriteString(m.spinner.View() + " " + m.runningPlugin)
		b.WriteString("\n")
	}

	return logBoxStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderPicking() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("Select: " + m.prompt.Label))
	b.WriteString("\n")
	if m.prompt.Pattern != "" {
		b.WriteString(mutedLineStyle.Render(m.prompt.Pattern))
		b.WriteString("\n")
	}
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("enter: select • esc: cancel"))

	return b.String()
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"↑/k ↓/j", "Move between plug-ins"},
		{"1-9", "Jump to a plug-in"},
		{"enter/r", "Run the selected plug-in"},
		{"esc", "Cancel a file prompt"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(helpKeyStyle.Render(row[0]))
		b.WriteString(helpDescStyle.Render(row[1]))
		b.WriteString("\n")
	}

	return helpBoxStyle.Render(b.String())
}

func (m Model) renderFooter() string {
	parts := []string{"↑↓ navigate", "enter run", "? help", "q quit"}
	if m.running {
		parts = append([]string{m.spinner.View() + " running " + m.runningPlugin}, parts...)
	}
	return footerStyle.Width(m.width).Render(strings.Join(parts, "  •  "))
}
