// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches conversation transcripts on disk. The backend owns
// conversations; this cache keeps a local copy of what the client has seen,
// so transcripts can be exported and browsed offline.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/orgrag-tui/internal/model"
	"github.com/jeranaias/orgrag-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is a locally cached copy of one conversation.
type Transcript struct {
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
	CachedAt     time.Time          `json:"cached_at"`
}

// TranscriptMeta is the listing view of a cached transcript.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CachedAt     time.Time `json:"cached_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// Preview returns the first user message, collapsed and truncated.
func (t *Transcript) Preview() string {
	for _, msg := range t.Messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			return util.TruncateRunes(util.CollapseWhitespace(msg.Content), 80)
		}
	}
	return ""
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// Store persists transcripts as one JSON file per conversation.
type Store struct {
	// BaseDir is the cache directory. Default: ~/.orgrag/transcripts/
	BaseDir string

	// MaxTranscripts limits cached transcripts (0 = unlimited). When
	// exceeded, the least recently cached are dropped.
	MaxTranscripts int
}

// NewStore creates a transcript store in the default location.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(homeDir, ".orgrag", "transcripts"))
}

// NewStoreWithDir creates a transcript store in a custom directory.
func NewStoreWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		BaseDir:        baseDir,
		MaxTranscripts: 200,
	}, nil
}

// filePath returns the cache file for a conversation id.
func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// =============================================================================
// SAVE AND LOAD
// =============================================================================

// Save caches a conversation's transcript, replacing any earlier copy.
func (s *Store) Save(conv model.Conversation, messages []model.Message) error {
	if conv.ID == "" {
		return ErrNoConversationID
	}
	t := Transcript{
		Conversation: conv,
		Messages:     messages,
		CachedAt:     time.Now(),
	}
	data, err := json.MarshalIndent(&t, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0644); err != nil {
		return err
	}
	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return nil
}

// Load retrieves a cached transcript by conversation id.
func (s *Store) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a cached transcript.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// enforceLimit drops the least recently cached transcripts over the cap.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	// List is most recent first; everything past the cap goes.
	for _, meta := range metas[s.MaxTranscripts:] {
		s.Delete(meta.ID)
	}
}

// =============================================================================
// LISTING
// =============================================================================

// List returns all cached transcripts, most recently cached first.
// Corrupted cache files are skipped.
func (s *Store) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	var metas []TranscriptMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		t, err := s.Load(id)
		if err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			ID:           t.Conversation.ID,
			Title:        t.Conversation.DisplayTitle(),
			CachedAt:     t.CachedAt,
			MessageCount: len(t.Messages),
			Preview:      t.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CachedAt.After(metas[j].CachedAt)
	})
	return metas, nil
}

// Search finds cached transcripts whose title, preview, or message content
// contains the query, case-insensitive. An empty query lists everything.
func (s *Store) Search(query string) ([]TranscriptMeta, error) {
	all, err := s.List()
	if err != nil || query == "" {
		return all, err
	}

	query = strings.ToLower(query)
	var results []TranscriptMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}
		t, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range t.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the transcript as Markdown, with role labels,
// timestamps, and the sources each answer drew on.
func (t *Transcript) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Conversation.DisplayTitle() + "\n\n")
	if !t.Conversation.CreatedAt.IsZero() {
		sb.WriteString("Created: " + t.Conversation.CreatedAt.Format(time.RFC3339) + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "**")
		if !msg.CreatedAt.IsZero() {
			sb.WriteString(" (" + msg.CreatedAt.Format("15:04") + ")")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
		if len(msg.SourcesUsed) > 0 {
			sb.WriteString("_Sources: " + strings.Join(msg.SourcesUsed, ", ") + "_\n\n")
		}
		sb.WriteString("---\n\n")
	}
	return sb.String()
}

// ExportJSON renders the transcript as pretty-printed JSON.
func (t *Transcript) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// =============================================================================
// ERRORS
// =============================================================================

// TranscriptError represents a transcript cache error. Compare with
// errors.Is.
type TranscriptError struct {
	Message string
}

// Error implements the error interface.
func (e *TranscriptError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *TranscriptError) Is(target error) bool {
	t, ok := target.(*TranscriptError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrTranscriptNotFound is returned when no cached copy exists.
	ErrTranscriptNotFound = &TranscriptError{Message: "transcript not found"}
	// ErrNoConversationID is returned when saving without an id.
	ErrNoConversationID = &TranscriptError{Message: "conversation has no id"}
)
