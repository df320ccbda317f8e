// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"

	"github.com/jeranaias/orgrag-tui/internal/api"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy indicates a send was attempted while a previous send is
	// still in flight. The caller should wait for the current send to
	// finish rather than queue.
	ErrBusy = errors.New("a message is already being sent")

	// ErrNoConversation indicates an operation that needs an active
	// conversation was attempted without one.
	ErrNoConversation = errors.New("no active conversation")
)

// Op names the session operation that produced an error, for display.
type Op string

const (
	OpLoadConversations Op = "load conversations"
	OpCreate            Op = "create conversation"
	OpLoadMessages      Op = "load messages"
	OpSend              Op = "send message"
	OpLoadSources       Op = "load sources"
	OpUpload            Op = "upload document"
)

// Error wraps a failed session operation with the operation name. The
// session keeps at most one of these; a newer failure replaces it.
type Error struct {
	Op  Op
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// DisplayMessage returns a message suitable for showing in the UI,
// preferring the backend's own detail text when available.
func (e *Error) DisplayMessage() string {
	var te *api.TransportError
	if errors.As(e.Err, &te) {
		return te.DisplayMessage()
	}
	return e.Err.Error()
}

// opError builds a session error, or nil for a nil cause.
func opError(op Op, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
