// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Session operations run in commands; these messages carry their results
// back into the update loop.

// ConversationsLoadedMsg reports a refreshed conversation list.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
}

// ConversationCreatedMsg reports a newly created conversation.
type ConversationCreatedMsg struct {
	ID string
}

// ConversationSelectedMsg reports a conversation's loaded message log.
type ConversationSelectedMsg struct {
	ID       string
	Messages []model.Message
}

// AnswerReceivedMsg reports a completed send; the session already holds
// the updated log.
type AnswerReceivedMsg struct{}

// SourcesLoadedMsg reports a refreshed source list.
type SourcesLoadedMsg struct {
	Sources []model.Source
}

// UploadFinishedMsg reports a completed document upload.
type UploadFinishedMsg struct {
	Result *api.UploadResult
}

// SessionErrorMsg reports a failed session operation. The session's error
// slot holds the details; Err is the same error for direct display.
type SessionErrorMsg struct {
	Err error
}

// HealthCheckedMsg reports the startup backend health probe.
type HealthCheckedMsg struct {
	Err error
}

// StatsLoadedMsg reports backend index statistics for the header.
type StatsLoadedMsg struct {
	Stats *api.Stats
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartedMsg reports that a direct query stream began.
type StreamStartedMsg struct{}

// StreamTickMsg drives buffered flushes of streamed text at a capped rate.
type StreamTickMsg struct {
	Time time.Time
}

// StreamDoneMsg reports the end of a direct query stream.
type StreamDoneMsg struct {
	Full string
	Err  error
}
