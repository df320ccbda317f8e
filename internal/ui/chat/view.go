// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/orgrag-tui/internal/model"
	"github.com/jeranaias/orgrag-tui/internal/session"
	"github.com/jeranaias/orgrag-tui/internal/ui/styles"
	"github.com/jeranaias/orgrag-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	sidebarWidth     = 30
	sourcePanelWidth = 36
	minChatWidth     = 40
)

// resize recomputes component dimensions after a terminal size change.
func (m *Model) resize() {
	chatWidth := m.width - sidebarWidth - 4
	if m.sourcesOpen {
		chatWidth -= sourcePanelWidth
	}
	if chatWidth < minChatWidth {
		chatWidth = minChatWidth
	}

	// header + input frame + status bar + borders
	chatHeight := m.height - 7
	if chatHeight < 5 {
		chatHeight = 5
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = chatHeight
	m.input.Width = m.width - 8
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	columns := []string{m.renderSidebar(), m.viewport.View()}
	if m.sourcesOpen {
		columns = append(columns, m.renderSourcePanel())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n")

	if err := m.session.Err(); err != nil {
		b.WriteString(styles.ErrorBanner.Render(err.DisplayMessage() + "  (esc to dismiss)"))
		b.WriteString("\n")
	}

	frame := styles.InputFrame
	if !m.sourcesOpen {
		frame = styles.InputFrameFocused
	}
	b.WriteString(frame.Width(m.width - 4).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader shows the organization, the signed-in user, and backend state.
func (m Model) renderHeader() string {
	left := fmt.Sprintf("%s  |  %s", m.org.Name, m.user.Name)
	if m.user.IsAdmin() {
		left += " (admin)"
	}

	var right string
	switch {
	case m.healthy && m.stats != nil:
		right = fmt.Sprintf("%s backend up, %d documents", styles.StatusIndicators.Success, m.stats.TotalDocuments)
	case m.healthy:
		right = styles.StatusIndicators.Success + " backend up"
	case m.healthErr != nil:
		right = styles.StatusIndicators.Error + " backend unreachable"
	default:
		right = styles.StatusIndicators.Active + " checking backend"
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderSidebar shows the conversation list, most recent first.
func (m Model) renderSidebar() string {
	convs := m.session.Conversations()
	activeID := m.session.ActiveConversationID()

	var b strings.Builder
	b.WriteString(styles.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")

	if len(convs) == 0 {
		b.WriteString(styles.Hint.Render("none yet (ctrl+n)"))
	}
	for i, c := range convs {
		title := util.TruncateRunes(c.DisplayTitle(), sidebarWidth-6)
		marker := "  "
		if c.ID == activeID {
			marker = styles.StatusIndicators.Active + " "
		}
		line := marker + title
		if i == m.convCursor {
			b.WriteString(styles.SidebarSelected.Render(line))
		} else {
			b.WriteString(styles.SidebarItem.Render(line))
		}
		b.WriteString("\n")
	}

	return styles.Sidebar.
		Width(sidebarWidth).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// MESSAGE LOG
// =============================================================================

// refreshViewport rebuilds the viewport content from the session's message
// log plus any in-flight streamed text.
func (m *Model) refreshViewport() {
	var b strings.Builder

	switch m.session.Phase() {
	case session.PhaseNoConversation:
		if !m.streaming && m.streamText == "" {
			b.WriteString(styles.Hint.Render("No conversation selected. ctrl+n starts one; ctrl+g streams a direct query."))
		}
	case session.PhaseLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(styles.Hint.Render(" loading conversation..."))
	default:
		for i, msg := range m.session.Messages() {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(m.renderMessage(msg))
			b.WriteString("\n")
		}
		if m.session.Sending() {
			b.WriteString("\n")
			b.WriteString(m.spinner.View())
			b.WriteString(styles.Hint.Render(" thinking..."))
		}
	}

	if m.streaming || m.streamText != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.AssistantLabel.Render("Quick ask"))
		b.WriteString(styles.Hint.Render("  " + util.TruncateRunes(m.streamQuery, 60)))
		b.WriteString("\n")
		b.WriteString(styles.AssistantMessage.Width(m.viewport.Width - 2).Render(m.streamText))
		if m.streaming {
			b.WriteString("\n")
			b.WriteString(m.spinner.View())
		}
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

// renderMessage renders one log entry with its role label and, for assistant
// answers, the source attribution line.
func (m Model) renderMessage(msg model.Message) string {
	var b strings.Builder
	wrap := m.viewport.Width - 2

	switch msg.Role {
	case model.RoleUser:
		b.WriteString(styles.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(styles.UserMessage.Width(wrap).Render(msg.Content))
	case model.RoleAssistant:
		b.WriteString(styles.AssistantLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(styles.AssistantMessage.Width(wrap).Render(msg.Content))
		if len(msg.SourcesUsed) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.SourceAttribution.Render("Sources: " + strings.Join(msg.SourcesUsed, ", ")))
		}
		if msg.HasChart() {
			b.WriteString("\n")
			b.WriteString(styles.Hint.Render("[chart data attached]"))
		}
	default:
		b.WriteString(styles.Hint.Render(msg.Content))
	}
	return b.String()
}

// =============================================================================
// SOURCE PANEL
// =============================================================================

// renderSourcePanel shows the selectable document sources. An empty
// selection means the backend searches everything the user can see.
func (m Model) renderSourcePanel() string {
	sources := m.session.Sources()

	var b strings.Builder
	b.WriteString(styles.SidebarTitle.Render("Sources"))
	b.WriteString("\n")

	if len(sources) == 0 {
		b.WriteString(styles.Hint.Render("no documents"))
	}
	for i, s := range sources {
		check := "[ ]"
		style := styles.SourceUnselected
		if m.session.IsSelected(s.ID) {
			check = "[x]"
			style = styles.SourceSelected
		}
		name := util.TruncateRunes(s.Name, sourcePanelWidth-10)
		line := check + " " + name
		if s.IsOrgWide() {
			line += " " + styles.OrgWideBadge.Render("(org)")
		}
		if i == m.sourceCursor {
			line = "> " + line
		} else {
			line = "  " + line
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if ids := m.session.SelectedSourceIDs(); len(ids) > 0 {
		b.WriteString(styles.Hint.Render(fmt.Sprintf("%d selected", len(ids))))
	} else {
		b.WriteString(styles.Hint.Render("searching everything"))
	}

	return styles.SourcePanel.
		Width(sourcePanelWidth).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	mode := "mode: " + m.session.Mode().DisplayName()

	selection := "all sources"
	if ids := m.session.SelectedSourceIDs(); len(ids) > 0 {
		selection = fmt.Sprintf("%d sources", len(ids))
	}

	left := mode + "  |  " + selection
	if m.statusMsg != "" {
		left += "  |  " + m.statusMsg
	}

	hints := styles.Hint.Render("enter send | ctrl+n new | ctrl+s sources | ctrl+o mode | ctrl+g ask | ctrl+c quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		return styles.StatusBar.Width(m.width).Render(left)
	}
	return styles.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}
