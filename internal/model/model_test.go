// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "hello")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	chart := json.RawMessage(`{"type":"bar"}`)
	msg := NewAssistantMessage("answer", []string{"doc1"}, chart, nil)

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if len(msg.SourcesUsed) != 1 || msg.SourcesUsed[0] != "doc1" {
		t.Errorf("SourcesUsed = %v, want [doc1]", msg.SourcesUsed)
	}
	if !msg.HasChart() {
		t.Error("HasChart() = false, want true")
	}
}

func TestMessage_WireDecode(t *testing.T) {
	raw := `{
		"message_id": "m1",
		"role": "assistant",
		"content": "X is...",
		"created_at": "2025-01-02T15:04:05Z",
		"sources_used": ["doc1", "doc2"],
		"chart": {"type": "line"}
	}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.ID != "m1" {
		t.Errorf("ID = %q, want m1", msg.ID)
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if len(msg.SourcesUsed) != 2 {
		t.Errorf("SourcesUsed has %d entries, want 2", len(msg.SourcesUsed))
	}
	if !msg.HasChart() {
		t.Error("chart payload lost in decode")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("line one\nline two with a fairly long tail that keeps going")
	preview := msg.Preview(20)

	if strings.Contains(preview, "\n") {
		t.Errorf("Preview contains newline: %q", preview)
	}
	if len([]rune(preview)) > 20 {
		t.Errorf("Preview too long: %q", preview)
	}
}

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}
	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation("conv_123")

	if conv.ID != "conv_123" {
		t.Errorf("ID = %q, want conv_123", conv.ID)
	}
	if conv.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", conv.Title)
	}
}

func TestConversation_DisplayTitle(t *testing.T) {
	c := Conversation{ID: "c1"}
	if got := c.DisplayTitle(); got != PlaceholderTitle {
		t.Errorf("DisplayTitle() = %q, want placeholder", got)
	}

	c.Title = "Quarterly planning"
	if got := c.DisplayTitle(); got != "Quarterly planning" {
		t.Errorf("DisplayTitle() = %q, want assigned title", got)
	}
}

// =============================================================================
// SOURCE AND MODE TESTS
// =============================================================================

func TestSource_IsOrgWide(t *testing.T) {
	org := Source{ID: "s1", Visibility: VisibilityOrgWide}
	personal := Source{ID: "s2", Visibility: VisibilityPersonal}

	if !org.IsOrgWide() {
		t.Error("org-wide source should report IsOrgWide")
	}
	if personal.IsOrgWide() {
		t.Error("personal source should not report IsOrgWide")
	}
}

func TestQueryMode_Valid(t *testing.T) {
	for _, m := range []QueryMode{ModeRAG, ModeGeneralKnowledge, ModeWebSearch} {
		if !m.Valid() {
			t.Errorf("mode %q should be valid", m)
		}
	}
	if QueryMode("hybrid").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestQueryMode_WireValues(t *testing.T) {
	tests := []struct {
		mode QueryMode
		want string
	}{
		{ModeRAG, "rag"},
		{ModeGeneralKnowledge, "general_knowledge"},
		{ModeWebSearch, "web_search"},
	}
	for _, tc := range tests {
		if got := tc.mode.String(); got != tc.want {
			t.Errorf("String(%v) = %q, want %q", tc.mode, got, tc.want)
		}
	}
}
