// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/session"
)

// =============================================================================
// SESSION COMMANDS
// =============================================================================

// Commands wrap session operations as tea.Cmds so network I/O never blocks
// the update loop. Each command reports back with one of the messages in
// messages.go.

// opTimeout bounds non-streaming operations launched from the UI.
const opTimeout = 3 * time.Minute

func loadConversationsCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := mgr.LoadConversations(ctx); err != nil {
			return SessionErrorMsg{Err: err}
		}
		return ConversationsLoadedMsg{Conversations: mgr.Conversations()}
	}
}

func newConversationCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		id, err := mgr.NewConversation(ctx)
		if err != nil {
			return SessionErrorMsg{Err: err}
		}
		return ConversationCreatedMsg{ID: id}
	}
}

func selectConversationCmd(mgr *session.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := mgr.SelectConversation(ctx, id); err != nil {
			return SessionErrorMsg{Err: err}
		}
		return ConversationSelectedMsg{ID: id, Messages: mgr.Messages()}
	}
}

func sendMessageCmd(mgr *session.Manager, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := mgr.SendMessage(ctx, question); err != nil {
			return SessionErrorMsg{Err: err}
		}
		return AnswerReceivedMsg{}
	}
}

func loadSourcesCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := mgr.LoadSources(ctx); err != nil {
			return SessionErrorMsg{Err: err}
		}
		return SourcesLoadedMsg{Sources: mgr.Sources()}
	}
}

func healthCheckCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return HealthCheckedMsg{Err: client.Health(ctx)}
	}
}

func statsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stats, err := client.Stats(ctx)
		if err != nil {
			// The header just omits stats; not worth an error banner.
			return StatsLoadedMsg{Stats: nil}
		}
		return StatsLoadedMsg{Stats: stats}
	}
}

// =============================================================================
// STREAMING COMMANDS
// =============================================================================

// startStreamCmd launches a direct query stream. Chunks land in buf; the
// returned command resolves to StreamDoneMsg when the stream ends. Ticks
// started alongside flush the buffer into the view.
func startStreamCmd(client *api.Client, req api.ChatRequest, buf *StreamingBuffer, cancel <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		ctx, stop := context.WithCancel(context.Background())
		defer stop()
		go func() {
			select {
			case <-cancel:
				stop()
			case <-ctx.Done():
			}
		}()

		full, err := client.StreamChat(ctx, req, buf.Write)
		return StreamDoneMsg{Full: full, Err: err}
	}
}
