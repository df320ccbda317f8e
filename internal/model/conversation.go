// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a lightweight conversation record as listed by the
// backend. The message log is held separately by the session manager; the
// server owns persistence and title assignment.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaceholderTitle is the title shown for a conversation the server has not
// yet titled.
const PlaceholderTitle = "New Conversation"

// NewConversation creates a local record for a freshly created conversation.
// The id comes from the backend; the title is a placeholder until the server
// assigns one.
func NewConversation(id string) Conversation {
	return Conversation{
		ID:        id,
		Title:     PlaceholderTitle,
		CreatedAt: time.Now(),
	}
}

// DisplayTitle returns the title or the placeholder when unset.
func (c Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return PlaceholderTitle
}
