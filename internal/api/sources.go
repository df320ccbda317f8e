// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// SOURCE ENDPOINTS
// =============================================================================

// ListSources fetches the document sources visible to the user within the
// organization: org-wide documents plus the user's personal uploads.
func (c *Client) ListSources(ctx context.Context, orgID, userID string) ([]model.Source, error) {
	var sr sourcesResponse
	path := fmt.Sprintf("/organizations/%s/sources?user_id=%s",
		url.PathEscape(orgID), url.QueryEscape(userID))
	if err := c.getJSON(ctx, path, &sr); err != nil {
		return nil, err
	}
	return sr.Sources, nil
}

// Upload submits a document for ingestion. The file content is read from r;
// filename is preserved server-side as the source name.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename, userID, orgID string, visibility model.Visibility) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("build upload form: %w", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read upload content: %w", err)}
	}

	fields := map[string]string{
		"user_id":    userID,
		"org_id":     orgID,
		"visibility": string(visibility),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("build upload form: %w", err)}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("build upload form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
