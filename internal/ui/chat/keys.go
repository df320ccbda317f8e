// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY BINDINGS
// =============================================================================

// KeyMap holds the chat view key bindings.
type KeyMap struct {
	Send          key.Binding
	NewConv       key.Binding
	NextConv      key.Binding
	PrevConv      key.Binding
	ToggleSources key.Binding
	ToggleSource  key.Binding
	NextSource    key.Binding
	PrevSource    key.Binding
	CycleMode     key.Binding
	QuickAsk      key.Binding
	Export        key.Binding
	DismissError  key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default chat key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewConv: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new conversation"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("ctrl+↓", "next conversation"),
		),
		PrevConv: key.NewBinding(
			key.WithKeys("ctrl+up"),
			key.WithHelp("ctrl+↑", "previous conversation"),
		),
		ToggleSources: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "sources panel"),
		),
		ToggleSource: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle source"),
		),
		NextSource: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next source"),
		),
		PrevSource: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous source"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "cycle mode"),
		),
		QuickAsk: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "quick ask (stream)"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export transcript"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss error"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
