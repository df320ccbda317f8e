// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/model"
	"github.com/jeranaias/orgrag-tui/internal/session"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationsLoadedMsg:
		m.clampConvCursor(len(msg.Conversations))
		return m, nil

	case ConversationCreatedMsg:
		m.convCursor = 0
		m.refreshViewport()
		return m, nil

	case ConversationSelectedMsg:
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case AnswerReceivedMsg:
		if strings.TrimSpace(m.input.Value()) == m.pending {
			m.input.Reset()
		}
		m.pending = ""
		m.refreshViewport()
		m.viewport.GotoBottom()
		// List refresh may have re-titled the conversation.
		m.clampConvCursor(len(m.session.Conversations()))
		return m, nil

	case SourcesLoadedMsg:
		if m.sourceCursor >= len(msg.Sources) {
			m.sourceCursor = 0
		}
		return m, nil

	case SessionErrorMsg:
		// A failed send leaves the input intact for a retry.
		m.pending = ""
		m.refreshViewport()
		return m, nil

	case HealthCheckedMsg:
		m.healthy = msg.Err == nil
		m.healthErr = msg.Err
		return m, nil

	case StatsLoadedMsg:
		m.stats = msg.Stats
		return m, nil

	case StreamTickMsg:
		if !m.streaming {
			return m, nil
		}
		if chunk, ok := m.streamBuf.Flush(); ok {
			m.streamText += chunk
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, streamTickCmd()

	case StreamDoneMsg:
		return m.finishStream(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.session.Sending() || m.session.Phase() == session.PhaseLoading {
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, cmd

	default:
		return m, nil
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.streaming {
			m.cancelStream()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.DismissError):
		m.session.ClearError()
		return m, nil
	}

	if m.sourcesOpen {
		return m.handleSourceKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Send):
		return m.submit()

	case key.Matches(msg, m.keyMap.QuickAsk):
		return m.startQuickAsk()

	case key.Matches(msg, m.keyMap.NewConv):
		if m.busy() {
			return m, nil
		}
		return m, newConversationCmd(m.session)

	case key.Matches(msg, m.keyMap.NextConv):
		return m.moveConversation(1)

	case key.Matches(msg, m.keyMap.PrevConv):
		return m.moveConversation(-1)

	case key.Matches(msg, m.keyMap.ToggleSources):
		m.sourcesOpen = true
		m.resize()
		m.refreshViewport()
		return m, loadSourcesCmd(m.session)

	case key.Matches(msg, m.keyMap.CycleMode):
		m.cycleMode()
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		return m.exportTranscript()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSourceKey routes keys while the source panel is open.
func (m Model) handleSourceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sources := m.session.Sources()

	switch {
	case key.Matches(msg, m.keyMap.ToggleSources):
		m.sourcesOpen = false
		m.resize()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.NextSource):
		if m.sourceCursor < len(sources)-1 {
			m.sourceCursor++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PrevSource):
		if m.sourceCursor > 0 {
			m.sourceCursor--
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleSource):
		if m.sourceCursor < len(sources) {
			id := sources[m.sourceCursor].ID
			if m.session.ToggleSource(id) {
				m.statusMsg = "selected " + sources[m.sourceCursor].Name
			} else {
				m.statusMsg = "deselected " + sources[m.sourceCursor].Name
			}
		}
		return m, nil
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input through the active conversation. Whitespace-only
// input is dropped without clearing the field's focus.
func (m Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}
	if m.session.Phase() != session.PhaseActive {
		m.statusMsg = "no conversation selected (ctrl+n to start one)"
		return m, nil
	}
	if m.busy() {
		m.statusMsg = "still waiting on the previous answer"
		return m, nil
	}

	m.pending = question
	m.refreshViewport()
	return m, tea.Batch(sendMessageCmd(m.session, question), m.spinner.Tick)
}

// startQuickAsk streams a direct query against the index, bypassing
// conversation storage.
func (m Model) startQuickAsk() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.busy() {
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.streamQuery = query
	m.streamText = ""
	m.streamBuf.Reset()
	m.streamCancel = make(chan struct{})

	req := api.ChatRequest{Query: query, ConversationHistory: m.history, TopK: m.topK}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(
		startStreamCmd(m.client, req, m.streamBuf, m.streamCancel),
		streamTickCmd(),
		m.spinner.Tick,
	)
}

// cancelStream stops an in-flight direct query. The partial text stays on
// screen.
func (m *Model) cancelStream() {
	if m.streamCancel != nil {
		close(m.streamCancel)
		m.streamCancel = nil
	}
}

// finishStream drains the buffer and closes out the stream.
func (m Model) finishStream(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if chunk, ok := m.streamBuf.ForceFlush(); ok {
		m.streamText += chunk
	}
	if msg.Err == nil && msg.Full != "" {
		// The stream's accumulated result is canonical.
		m.streamText = msg.Full
		m.rememberQuickAsk(m.streamQuery, msg.Full)
	}
	m.streaming = false
	m.streamCancel = nil
	if msg.Err != nil {
		if errors.Is(msg.Err, api.ErrCancelled) {
			m.statusMsg = "stream cancelled"
		} else {
			m.statusMsg = "stream failed: " + displayError(msg.Err)
		}
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// rememberQuickAsk records a completed direct query as context for
// follow-ups, keeping at most historyLimit messages.
func (m *Model) rememberQuickAsk(query, answer string) {
	if m.historyLimit <= 0 {
		return
	}
	m.history = append(m.history,
		api.HistoryMessage{Role: "user", Content: query},
		api.HistoryMessage{Role: "assistant", Content: answer},
	)
	if over := len(m.history) - m.historyLimit; over > 0 {
		m.history = m.history[over:]
	}
}

// moveConversation shifts the sidebar cursor and selects the conversation
// under it.
func (m Model) moveConversation(delta int) (tea.Model, tea.Cmd) {
	convs := m.session.Conversations()
	if len(convs) == 0 || m.busy() {
		return m, nil
	}
	m.convCursor += delta
	if m.convCursor < 0 {
		m.convCursor = 0
	}
	if m.convCursor >= len(convs) {
		m.convCursor = len(convs) - 1
	}
	target := convs[m.convCursor]
	if target.ID == m.session.ActiveConversationID() {
		return m, nil
	}
	return m, tea.Batch(selectConversationCmd(m.session, target.ID), m.spinner.Tick)
}

// cycleMode rotates rag -> general_knowledge -> web_search -> rag.
func (m *Model) cycleMode() {
	var next model.QueryMode
	switch m.session.Mode() {
	case model.ModeRAG:
		next = model.ModeGeneralKnowledge
	case model.ModeGeneralKnowledge:
		next = model.ModeWebSearch
	default:
		next = model.ModeRAG
	}
	if err := m.session.SetMode(next); err == nil {
		m.statusMsg = "mode: " + next.DisplayName()
	}
}

// exportTranscript saves the active conversation to the local transcript
// store.
func (m Model) exportTranscript() (tea.Model, tea.Cmd) {
	conv, ok := m.session.ActiveConversation()
	if !ok {
		m.statusMsg = "nothing to export"
		return m, nil
	}
	if err := m.store.Save(conv, m.session.Messages()); err != nil {
		m.statusMsg = "export failed: " + err.Error()
		return m, nil
	}
	m.statusMsg = fmt.Sprintf("saved transcript for %q", conv.DisplayTitle())
	return m, nil
}

// =============================================================================
// CURSOR HELPERS
// =============================================================================

func (m *Model) clampConvCursor(n int) {
	if n == 0 {
		m.convCursor = 0
		return
	}
	if m.convCursor >= n {
		m.convCursor = n - 1
	}
}

// displayError prefers the server-provided detail when one is available.
func displayError(err error) string {
	var te *api.TransportError
	if errors.As(err, &te) {
		return te.DisplayMessage()
	}
	return err.Error()
}
