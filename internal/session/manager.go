// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the conversation lifecycle state.
type Phase int

const (
	// PhaseNoConversation means no conversation is selected; sending is
	// not possible.
	PhaseNoConversation Phase = iota
	// PhaseLoading means a conversation was selected and its message log
	// is being fetched.
	PhaseLoading
	// PhaseActive means a conversation is selected and its log is shown.
	PhaseActive
)

// String returns a short name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	default:
		return "none"
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the chat session state: the conversation list, the active
// conversation's message log, the source selection, and the query mode. All
// mutation goes through its operations; network calls happen outside the
// lock so accessors never block on I/O.
//
// At most one send is in flight at a time. The most recent operation
// failure is kept in a single error slot, replaced by newer failures and
// cleared when the same kind of operation later succeeds.
type Manager struct {
	mu     sync.Mutex
	client *api.Client

	// Identity
	userID string
	orgID  string

	// Conversation state
	phase         Phase
	conversations []model.Conversation
	activeID      string
	messages      []model.Message

	// Source and mode state
	sources  []model.Source
	selected map[string]bool
	mode     model.QueryMode

	// Submission state
	sending bool

	// Most recent operation failure
	lastErr *Error
}

// NewManager creates a session manager for the given user and organization.
func NewManager(client *api.Client, userID, orgID string) *Manager {
	return &Manager{
		client:   client,
		userID:   userID,
		orgID:    orgID,
		phase:    PhaseNoConversation,
		selected: make(map[string]bool),
		mode:     model.ModeRAG,
	}
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// Phase returns the conversation lifecycle state.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Sending reports whether a message submission is in flight.
func (m *Manager) Sending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sending
}

// Conversations returns a copy of the conversation list, most recent first
// as ordered by the server.
func (m *Manager) Conversations() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Conversation, len(m.conversations))
	copy(out, m.conversations)
	return out
}

// ActiveConversation returns the active conversation record, if any.
func (m *Manager) ActiveConversation() (model.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.ID == m.activeID {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// ActiveConversationID returns the id of the active conversation, or "".
func (m *Manager) ActiveConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Messages returns a copy of the active conversation's message log.
func (m *Manager) Messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Sources returns a copy of the known document sources.
func (m *Manager) Sources() []model.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// IsSelected reports whether a source id is in the current selection.
func (m *Manager) IsSelected(sourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected[sourceID]
}

// SelectedSourceIDs returns the selected source ids that still exist in the
// source list, in listing order. A nil result means no restriction: the
// backend searches everything the user can see.
func (m *Manager) SelectedSourceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedLocked()
}

// selectedLocked filters the selection against the current source list.
// Caller holds the lock.
func (m *Manager) selectedLocked() []string {
	var ids []string
	for _, s := range m.sources {
		if m.selected[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Mode returns the active query mode.
func (m *Manager) Mode() model.QueryMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Err returns the most recent operation failure, or nil. The slot holds one
// error at a time; newer failures replace older ones.
func (m *Manager) Err() *Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError dismisses the current error without running an operation.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// LoadConversations refreshes the conversation list from the backend. On
// failure the previous list is kept: stale data beats an empty sidebar.
func (m *Manager) LoadConversations(ctx context.Context) error {
	convs, err := m.client.ListConversations(ctx, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = opError(OpLoadConversations, err)
		return m.lastErr
	}
	m.conversations = convs
	m.lastErr = nil
	return nil
}

// NewConversation creates an empty conversation, makes it active, and
// clears the message log. The record appears at the top of the list with a
// placeholder title until the server assigns a real one.
func (m *Manager) NewConversation(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.sending {
		m.mu.Unlock()
		return "", ErrBusy
	}
	m.mu.Unlock()

	id, err := m.client.CreateConversation(ctx, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = opError(OpCreate, err)
		return "", m.lastErr
	}
	conv := model.NewConversation(id)
	m.conversations = append([]model.Conversation{conv}, m.conversations...)
	m.activeID = id
	m.messages = nil
	m.phase = PhaseActive
	m.lastErr = nil
	return id, nil
}

// SelectConversation makes a conversation active and fetches its message
// log. If the fetch fails, the conversation still becomes active with an
// empty log and the failure is surfaced through the error slot, so the
// user can read the error in place and retry by re-selecting.
//
// A select issued while an earlier select is still fetching supersedes it:
// the stale fetch's result is discarded when it lands.
func (m *Manager) SelectConversation(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	if m.sending {
		m.mu.Unlock()
		return ErrBusy
	}
	m.activeID = conversationID
	m.phase = PhaseLoading
	m.messages = nil
	m.mu.Unlock()

	msgs, err := m.client.GetConversation(ctx, conversationID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID != conversationID {
		// Superseded by a later select; drop this result.
		return nil
	}
	m.phase = PhaseActive
	if err != nil {
		m.messages = nil
		m.lastErr = opError(OpLoadMessages, err)
		return m.lastErr
	}
	m.messages = msgs
	m.lastErr = nil
	return nil
}

// =============================================================================
// MESSAGE SUBMISSION
// =============================================================================

// SendMessage submits a question to the active conversation. On success the
// user's message and the assistant's answer are appended to the log, in that
// order; on failure nothing is appended and the error lands in the error
// slot, so the caller can keep the typed input for a retry.
//
// A whitespace-only question is a silent no-op. While a send is in flight,
// further sends return ErrBusy instead of queueing. Selection ids that no
// longer match a known source are dropped from the request; an empty
// effective selection is sent as "no restriction".
func (m *Manager) SendMessage(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	m.mu.Lock()
	if m.phase != PhaseActive || m.activeID == "" {
		m.mu.Unlock()
		return ErrNoConversation
	}
	if m.sending {
		m.mu.Unlock()
		return ErrBusy
	}
	m.sending = true
	conversationID := m.activeID
	selected := m.selectedLocked()
	mode := m.mode
	m.mu.Unlock()

	answer, err := m.client.SendMessage(ctx, conversationID, m.userID, question, selected, mode)

	m.mu.Lock()
	m.sending = false
	if err != nil {
		m.lastErr = opError(OpSend, err)
		m.mu.Unlock()
		return m.lastErr
	}
	m.messages = append(m.messages, model.NewUserMessage(question))
	m.messages = append(m.messages, model.NewAssistantMessage(
		answer.Answer, answer.SourcesUsed, answer.Chart, answer.Data))
	m.lastErr = nil
	m.mu.Unlock()

	// The first answer makes the server title the conversation; refresh
	// the list so the sidebar picks it up. Cosmetic, so a failure here
	// does not disturb the error slot.
	if convs, err := m.client.ListConversations(ctx, m.userID); err == nil {
		m.mu.Lock()
		m.conversations = convs
		m.mu.Unlock()
	}
	return nil
}

// =============================================================================
// SOURCE AND MODE OPERATIONS
// =============================================================================

// ToggleSource flips a source id in and out of the selection and returns
// its new state. An empty id is a no-op; toggling the same id twice
// restores the prior selection.
func (m *Manager) ToggleSource(sourceID string) bool {
	if sourceID == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected[sourceID] {
		delete(m.selected, sourceID)
		return false
	}
	m.selected[sourceID] = true
	return true
}

// ClearSelection deselects all sources, restoring "search everything".
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[string]bool)
}

// SetMode switches the query mode. Exactly one mode is active at a time.
func (m *Manager) SetMode(mode model.QueryMode) error {
	if !mode.Valid() {
		return &Error{Op: OpSend, Err: model.ErrUnknownMode}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	return nil
}

// LoadSources refreshes the document source list and re-initializes the
// selection to all org-wide sources, matching what a fresh session shows.
// On failure the previous list and selection are kept.
func (m *Manager) LoadSources(ctx context.Context) error {
	sources, err := m.client.ListSources(ctx, m.orgID, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = opError(OpLoadSources, err)
		return m.lastErr
	}
	m.sources = sources

	m.selected = make(map[string]bool)
	for _, s := range sources {
		if s.IsOrgWide() {
			m.selected[s.ID] = true
		}
	}
	m.lastErr = nil
	return nil
}

// UploadDocument sends a document for ingestion and refreshes the source
// list on success so the new source becomes selectable immediately.
func (m *Manager) UploadDocument(ctx context.Context, r io.Reader, filename string, visibility model.Visibility) (*api.UploadResult, error) {
	result, err := m.client.Upload(ctx, r, filename, m.userID, m.orgID, visibility)
	if err != nil {
		m.mu.Lock()
		m.lastErr = opError(OpUpload, err)
		m.mu.Unlock()
		return nil, m.lastErr
	}

	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()

	// Best-effort refresh; the upload already succeeded.
	m.LoadSources(ctx)
	return result, nil
}
