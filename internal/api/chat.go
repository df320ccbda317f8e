// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
)

// =============================================================================
// DIRECT CHAT ENDPOINT
// =============================================================================

// Chat runs a single-shot query against the document index and returns the
// complete answer with retrieval metadata. For token-by-token delivery use
// StreamChat instead.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuestion
	}
	req.Stream = false

	var result ChatResult
	if err := c.postJSON(ctx, "/chat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
