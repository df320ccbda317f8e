// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation view for the orgrag TUI.

The chat package implements the terminal chat interface with Bubble Tea. It
renders the conversation sidebar, the active message log, the document
source picker, and the question input, all backed by the session manager.

# Key Components

## Model (model.go)

The Model struct holds the presentation state: bubbles components, list
cursors, panel visibility, and direct-query streaming buffers. Conversation
and selection state lives in session.Manager; the model reads it through
the manager's accessors.

## Update Loop (update.go)

Handles keyboard input and the result messages produced by commands:
conversation switching, source selection, mode cycling, transcript export,
and streamed direct queries.

## View Rendering (view.go)

Renders the header with backend health and index stats, the conversation
sidebar, role-styled message bubbles with source attributions, the source
panel, and the status bar.

## Streaming (streaming.go)

StreamingBuffer batches streamed chunks so the viewport repaints at a
capped frame rate instead of once per chunk. Direct queries (ctrl+g) stream
through it; conversation sends arrive as complete answers.

## Commands (commands.go)

tea.Cmd wrappers around the session manager and backend client so network
I/O never blocks the update loop.

# Usage

	mgr := session.NewManager(client, user.ID, org.ID)
	m := chat.New(mgr, client, store, user, org, 5, 10)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
