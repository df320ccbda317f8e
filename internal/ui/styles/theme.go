// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// ApplyTheme forces the lipgloss background detection when the config pins
// a theme instead of "auto".
func ApplyTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetColorProfile(termenv.ColorProfile())
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetColorProfile(termenv.ColorProfile())
		lipgloss.SetHasDarkBackground(false)
	}
}

// =============================================================================
// LAYOUT STYLES
// =============================================================================

// Header is the top bar with the org name and backend state.
var Header = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(SurfaceDim).
	Bold(true).
	Padding(0, 1)

// StatusBar is the bottom bar with mode, selection, and hints.
var StatusBar = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(SurfaceDim).
	Padding(0, 1)

// Sidebar frames the conversation list.
var Sidebar = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// SidebarTitle heads the conversation list.
var SidebarTitle = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// SidebarItem is an unselected conversation row.
var SidebarItem = lipgloss.NewStyle().
	Foreground(TextSecondary)

// SidebarSelected is the focused conversation row.
var SidebarSelected = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(SelectionBg).
	Bold(true)

// =============================================================================
// MESSAGE STYLES
// =============================================================================

// UserLabel heads a user message.
var UserLabel = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// AssistantLabel heads an assistant message.
var AssistantLabel = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// UserMessage frames user message content.
var UserMessage = lipgloss.NewStyle().
	Foreground(UserBubbleFg).
	BorderStyle(lipgloss.NormalBorder()).
	BorderLeft(true).
	BorderForeground(UserBubbleBorder).
	PaddingLeft(1)

// AssistantMessage frames assistant message content.
var AssistantMessage = lipgloss.NewStyle().
	Foreground(AssistantBubbleFg).
	BorderStyle(lipgloss.NormalBorder()).
	BorderLeft(true).
	BorderForeground(AssistantBubbleBorder).
	PaddingLeft(1)

// SourceAttribution lists the documents an answer drew on.
var SourceAttribution = lipgloss.NewStyle().
	Foreground(TextMuted).
	Italic(true)

// ErrorBanner shows the session's error slot.
var ErrorBanner = lipgloss.NewStyle().
	Foreground(Rose).
	Bold(true).
	BorderStyle(lipgloss.NormalBorder()).
	BorderLeft(true).
	BorderForeground(Rose).
	PaddingLeft(1)

// =============================================================================
// SOURCE PANEL STYLES
// =============================================================================

// SourcePanel frames the document source picker.
var SourcePanel = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// SourceSelected marks a source included in the selection.
var SourceSelected = lipgloss.NewStyle().
	Foreground(Emerald).
	Bold(true)

// SourceUnselected is a source not in the selection.
var SourceUnselected = lipgloss.NewStyle().
	Foreground(TextSecondary)

// OrgWideBadge marks org-wide documents.
var OrgWideBadge = lipgloss.NewStyle().
	Foreground(Emerald)

// =============================================================================
// INPUT STYLES
// =============================================================================

// InputFrame surrounds the question input.
var InputFrame = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// InputFrameFocused is the input frame when focused.
var InputFrameFocused = InputFrame.
	BorderForeground(Cyan)

// Hint renders key hints in the status bar.
var Hint = lipgloss.NewStyle().
	Foreground(TextMuted)
