// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// ErrEmptyQuestion indicates a send was attempted with no question text.
var ErrEmptyQuestion = errors.New("question is empty")

// ListConversations fetches the user's conversations, most recent first as
// ordered by the server.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var cr conversationsResponse
	path := "/conversations?user_id=" + url.QueryEscape(userID)
	if err := c.getJSON(ctx, path, &cr); err != nil {
		return nil, err
	}
	return cr.Conversations, nil
}

// CreateConversation creates an empty conversation for the user and returns
// its server-assigned id.
func (c *Client) CreateConversation(ctx context.Context, userID string) (string, error) {
	var cr createConversationResponse
	req := createConversationRequest{UserID: userID}
	if err := c.postJSON(ctx, "/conversations", req, &cr); err != nil {
		return "", err
	}
	if cr.ConversationID == "" {
		return "", &DecodeError{Err: errors.New("response missing conversation_id")}
	}
	return cr.ConversationID, nil
}

// GetConversation fetches the full message log of a conversation.
func (c *Client) GetConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	var mr messagesResponse
	path := "/conversations/" + url.PathEscape(conversationID)
	if err := c.getJSON(ctx, path, &mr); err != nil {
		return nil, err
	}
	return mr.Messages, nil
}

// SendMessage submits a question to a conversation and returns the
// assistant's answer. selectedSources nil means no source restriction; a
// non-nil slice (even empty) restricts retrieval to the listed source ids.
func (c *Client) SendMessage(ctx context.Context, conversationID, userID, question string, selectedSources []string, mode model.QueryMode) (*Answer, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	req := sendMessageRequest{
		UserID:   userID,
		Question: question,
		Mode:     mode.String(),
	}
	if selectedSources != nil {
		req.SelectedSources = &selectedSources
	}

	var answer Answer
	path := fmt.Sprintf("/conversations/%s/messages", url.PathEscape(conversationID))
	if err := c.postJSON(ctx, path, req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}
