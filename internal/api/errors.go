// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCancelled indicates a streaming request was aborted by its
	// context before completion. Partial output must not be treated as a
	// successful result.
	ErrCancelled = errors.New("stream cancelled")

	// ErrNoBaseURL indicates the client was constructed without a server URL.
	ErrNoBaseURL = errors.New("backend base URL not configured")
)

// TransportError represents a failed HTTP exchange with the backend: either
// the request could not be performed or the server answered with a
// non-success status. Requests are single-attempt; the caller decides
// whether to retry by issuing a new operation.
type TransportError struct {
	Status int    // HTTP status code, 0 when the request never completed
	Detail string // User-displayable message extracted from the error payload
	Err    error  // Underlying error, if any
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return "request failed"
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DisplayMessage returns the message suitable for showing to the user.
func (e *TransportError) DisplayMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error()
}

// DecodeError indicates the response body could not be decoded against its
// declared text encoding. Bytes are never silently dropped; the stream is
// abandoned at the first undecodable sequence.
type DecodeError struct {
	Encoding string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("cannot decode response as %s: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("cannot decode response: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR PAYLOAD DECODING
// =============================================================================

// errorEnvelope is the backend's error payload. The detail field is either a
// plain string or a list of structured validation items.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

// validationItem is one entry of a structured detail list, in the shape
// produced by FastAPI request validation.
type validationItem struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
	Typ string            `json:"type"`
}

// extractDetail turns an error response body into a user-displayable
// message. Both detail shapes are handled: a string is returned verbatim, a
// list of items is joined with "; " using each item's msg field (falling
// back to the raw JSON of items without one). Unparseable bodies yield the
// provided fallback.
func extractDetail(body []byte, fallback string) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Detail, &items); err != nil || len(items) == 0 {
		return fallback
	}

	parts := make([]string, 0, len(items))
	for _, raw := range items {
		var item validationItem
		if err := json.Unmarshal(raw, &item); err == nil && item.Msg != "" {
			parts = append(parts, item.Msg)
			continue
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "; ")
}
