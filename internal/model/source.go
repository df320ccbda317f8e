// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "errors"

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Visibility controls who can retrieve from an uploaded document.
type Visibility string

const (
	VisibilityPersonal Visibility = "personal"
	VisibilityOrgWide  Visibility = "org-wide"
)

// Source describes a document visible to the current user. Sources are
// read-only on the client; the backend owns their lifecycle.
type Source struct {
	ID         string     `json:"source_id"`
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
}

// IsOrgWide reports whether the source is shared across the organization.
func (s Source) IsOrgWide() bool {
	return s.Visibility == VisibilityOrgWide
}

// =============================================================================
// QUERY MODE
// =============================================================================

// ErrUnknownMode indicates a mode value outside the recognized set.
var ErrUnknownMode = errors.New("unknown query mode")

// QueryMode is the retrieval strategy for answering a question. Exactly one
// mode is active at a time; ModeRAG is the default.
type QueryMode string

const (
	// ModeRAG answers from the selected document sources.
	ModeRAG QueryMode = "rag"
	// ModeGeneralKnowledge answers from the model's general knowledge,
	// ignoring documents.
	ModeGeneralKnowledge QueryMode = "general_knowledge"
	// ModeWebSearch answers from a live web search.
	ModeWebSearch QueryMode = "web_search"
)

// String returns the wire value of the mode.
func (m QueryMode) String() string {
	return string(m)
}

// DisplayName returns a human-readable name for the mode.
func (m QueryMode) DisplayName() string {
	switch m {
	case ModeGeneralKnowledge:
		return "General Knowledge"
	case ModeWebSearch:
		return "Web Search"
	default:
		return "Documents"
	}
}

// Valid reports whether m is one of the three recognized modes.
func (m QueryMode) Valid() bool {
	switch m {
	case ModeRAG, ModeGeneralKnowledge, ModeWebSearch:
		return true
	}
	return false
}
