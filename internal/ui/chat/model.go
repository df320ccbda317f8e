// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/identity"
	"github.com/jeranaias/orgrag-tui/internal/session"
	"github.com/jeranaias/orgrag-tui/internal/storage"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. Conversation state lives
// in the session manager; the model holds only presentation state (cursors,
// panel visibility, streaming buffers) and the bubbles components.
type Model struct {
	session *session.Manager
	client  *api.Client
	store   *storage.Store

	// Identity
	user identity.User
	org  identity.Organization

	// Dimensions
	width  int
	height int

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Cursors
	convCursor   int
	sourceCursor int
	sourcesOpen  bool

	// Direct query streaming (quick ask). streamText is a plain string:
	// bubbletea copies the model by value on every update.
	streaming    bool
	streamBuf    *StreamingBuffer
	streamText   string
	streamQuery  string
	streamCancel chan struct{}

	// Rolling context for follow-up quick asks, capped at historyLimit
	// messages.
	history []api.HistoryMessage

	// Backend state for the header
	healthy   bool
	healthErr error
	stats     *api.Stats

	// Question awaiting a send result. The input is cleared only when the
	// answer arrives; a failed send leaves the typed text for a retry.
	pending string

	// Transient status line, cleared on the next keypress
	statusMsg string

	// Direct query settings
	topK         int
	historyLimit int
}

// New creates a chat model wired to the given session, backend client, and
// transcript store.
func New(mgr *session.Manager, client *api.Client, store *storage.Store, user identity.User, org identity.Organization, topK, historyLimit int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}

	return Model{
		session:      mgr,
		client:       client,
		store:        store,
		user:         user,
		org:          org,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		keyMap:       DefaultKeyMap(),
		streamBuf:    NewStreamingBuffer(),
		topK:         topK,
		historyLimit: historyLimit,
	}
}

// Init probes the backend and loads the conversation and source lists.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		healthCheckCmd(m.client),
		statsCmd(m.client),
		loadConversationsCmd(m.session),
		loadSourcesCmd(m.session),
		m.spinner.Tick,
	)
}

// busy reports whether a session operation blocks new input.
func (m *Model) busy() bool {
	return m.session.Sending() || m.session.Phase() == session.PhaseLoading || m.streaming
}
