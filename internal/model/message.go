// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and knowledge sources.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/orgrag-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Messages are immutable once appended to a conversation log; the JSON tags
// match the backend wire format so server logs decode directly into this
// type.
type Message struct {
	ID        string    `json:"message_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// SourcesUsed lists the document sources the answer was grounded on.
	SourcesUsed []string `json:"sources_used,omitempty"`

	// Chart and Data carry opaque structured payloads produced by the
	// backend (chart configuration and raw tabular data). The client
	// never interprets them beyond passing them to a renderer.
	Chart json.RawMessage `json:"chart,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewUserMessage creates a locally-synthesized user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates a locally-synthesized assistant message from a
// server answer.
func NewAssistantMessage(content string, sourcesUsed []string, chart, data json.RawMessage) Message {
	return Message{
		ID:          generateMessageID(),
		Role:        RoleAssistant,
		Content:     content,
		CreatedAt:   time.Now(),
		SourcesUsed: sourcesUsed,
		Chart:       chart,
		Data:        data,
	}
}

// HasChart reports whether the message carries a chart payload.
func (m *Message) HasChart() bool {
	return len(m.Chart) > 0
}

// Preview returns a one-line truncated preview of the message content.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(util.CollapseWhitespace(m.Content), maxRunes)
}

// generateMessageID creates a unique local message ID. Server-provided ids
// take precedence when a log is loaded from the backend.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
