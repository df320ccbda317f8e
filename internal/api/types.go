// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"

	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// conversationsResponse is the body of GET /conversations.
type conversationsResponse struct {
	Conversations []model.Conversation `json:"conversations"`
}

// createConversationRequest is the body of POST /conversations.
type createConversationRequest struct {
	UserID string `json:"user_id"`
}

// createConversationResponse is the body returned by POST /conversations.
type createConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

// messagesResponse is the body of GET /conversations/{id}.
type messagesResponse struct {
	ConversationID string          `json:"conversation_id"`
	Messages       []model.Message `json:"messages"`
}

// sendMessageRequest is the body of POST /conversations/{id}/messages.
// SelectedSources is a pointer so that "no restriction" serializes as JSON
// null while an explicit selection serializes as a list of source ids.
type sendMessageRequest struct {
	UserID          string    `json:"user_id"`
	Question        string    `json:"question"`
	SelectedSources *[]string `json:"selected_sources"`
	Mode            string    `json:"mode"`
}

// Answer is the assistant's reply to a conversation message. Chart and Data
// are optional structured payloads carried through without interpretation.
type Answer struct {
	Answer      string          `json:"answer"`
	SourcesUsed []string        `json:"sources_used,omitempty"`
	FullContext string          `json:"full_context,omitempty"`
	Chart       json.RawMessage `json:"chart,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// sourcesResponse is the body of GET /organizations/{org_id}/sources.
type sourcesResponse struct {
	Sources []model.Source `json:"sources"`
}

// UploadResult reports the outcome of a document upload.
type UploadResult struct {
	Filename       string `json:"filename"`
	ChunksAdded    int    `json:"chunks_added"`
	TotalDocuments int    `json:"total_documents"`
}

// HistoryMessage is one turn of prior conversation context sent with a
// direct chat query.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat and POST /chat/stream: a direct
// query against the document index, outside any stored conversation.
type ChatRequest struct {
	Query               string           `json:"query"`
	ConversationHistory []HistoryMessage `json:"conversation_history,omitempty"`
	TopK                int              `json:"top_k,omitempty"`
	Stream              bool             `json:"stream"`
}

// ChatSource is one retrieved document chunk with its vector distance.
type ChatSource struct {
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// ChatResult is the body returned by POST /chat.
type ChatResult struct {
	Response string       `json:"response"`
	Sources  []ChatSource `json:"sources,omitempty"`
}

// Stats describes the state of the backend document index.
type Stats struct {
	TotalDocuments int    `json:"total_documents"`
	CollectionName string `json:"collection_name"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string `json:"status"`
}
