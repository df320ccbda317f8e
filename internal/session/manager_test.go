// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/model"
)

// fakeBackend is a minimal in-memory orgrag server for manager tests.
type fakeBackend struct {
	mu sync.Mutex

	conversations []map[string]string
	messages      map[string][]map[string]any
	sources       []map[string]string

	// Captured request state
	lastSendBody map[string]any
	sendCount    int

	// Behavior switches
	failList     bool
	failMessages bool
	failSend     string // error detail, "" for success
	sendDelay    time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: make(map[string][]map[string]any),
	}
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /conversations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failList {
			http.Error(w, `{"detail": "list unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"conversations": f.conversations})
	})

	mux.HandleFunc("POST /conversations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := "conv_created"
		f.conversations = append([]map[string]string{{"conversation_id": id}}, f.conversations...)
		json.NewEncoder(w).Encode(map[string]string{"conversation_id": id})
	})

	mux.HandleFunc("GET /conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failMessages {
			http.Error(w, `{"detail": "conversation not found"}`, http.StatusNotFound)
			return
		}
		id := r.PathValue("id")
		json.NewEncoder(w).Encode(map[string]any{
			"conversation_id": id,
			"messages":        f.messages[id],
		})
	})

	mux.HandleFunc("POST /conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.sendCount++
		delay := f.sendDelay
		failDetail := f.failSend
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &f.lastSendBody)
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if failDetail != "" {
			http.Error(w, `{"detail": "`+failDetail+`"}`, http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"answer":       "the answer",
			"sources_used": []string{"handbook.pdf"},
		})
	})

	mux.HandleFunc("GET /organizations/{org}/sources", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"sources": f.sources})
	})

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "file too large"}`, http.StatusRequestEntityTooLarge)
	})

	return mux
}

// newTestManager wires a manager to a fake backend. Callers own the server.
func newTestManager(t *testing.T, f *fakeBackend) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	m := NewManager(api.NewClient(srv.URL), "user_sample_001", "org_sample_001")
	return m, srv
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestManager_InitialState(t *testing.T) {
	m := NewManager(api.NewClient("http://unused"), "u1", "o1")

	if m.Phase() != PhaseNoConversation {
		t.Errorf("Phase = %v, want PhaseNoConversation", m.Phase())
	}
	if m.Mode() != model.ModeRAG {
		t.Errorf("Mode = %v, want ModeRAG", m.Mode())
	}
	if m.Sending() {
		t.Error("new manager should not be sending")
	}
	if ids := m.SelectedSourceIDs(); ids != nil {
		t.Errorf("SelectedSourceIDs = %v, want nil", ids)
	}
}

func TestLoadConversations(t *testing.T) {
	f := newFakeBackend()
	f.conversations = []map[string]string{
		{"conversation_id": "c2", "title": "Newer"},
		{"conversation_id": "c1", "title": "Older"},
	}
	m, _ := newTestManager(t, f)

	if err := m.LoadConversations(context.Background()); err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	convs := m.Conversations()
	if len(convs) != 2 || convs[0].ID != "c2" {
		t.Errorf("conversations = %+v", convs)
	}
}

func TestLoadConversations_FailureKeepsStaleList(t *testing.T) {
	f := newFakeBackend()
	f.conversations = []map[string]string{{"conversation_id": "c1", "title": "Kept"}}
	m, _ := newTestManager(t, f)

	if err := m.LoadConversations(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}

	f.mu.Lock()
	f.failList = true
	f.mu.Unlock()

	err := m.LoadConversations(context.Background())
	if err == nil {
		t.Fatal("expected error from failed refresh")
	}
	if got := m.Conversations(); len(got) != 1 || got[0].Title != "Kept" {
		t.Errorf("stale list lost: %+v", got)
	}
	if m.Err() == nil {
		t.Error("error slot should hold the refresh failure")
	}
}

func TestNewConversation(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	id, err := m.NewConversation(context.Background())
	if err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if id != "conv_created" {
		t.Errorf("id = %q", id)
	}
	if m.Phase() != PhaseActive {
		t.Errorf("Phase = %v, want PhaseActive", m.Phase())
	}
	if got := m.ActiveConversationID(); got != id {
		t.Errorf("ActiveConversationID = %q, want %q", got, id)
	}
	convs := m.Conversations()
	if len(convs) != 1 || convs[0].DisplayTitle() != model.PlaceholderTitle {
		t.Errorf("conversations = %+v, want placeholder at top", convs)
	}
	if len(m.Messages()) != 0 {
		t.Error("new conversation should have an empty log")
	}
}

func TestSelectConversation(t *testing.T) {
	f := newFakeBackend()
	f.messages["c1"] = []map[string]any{
		{"message_id": "m1", "role": "user", "content": "hi"},
		{"message_id": "m2", "role": "assistant", "content": "hello"},
	}
	m, _ := newTestManager(t, f)

	if err := m.SelectConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}
	if m.Phase() != PhaseActive {
		t.Errorf("Phase = %v, want PhaseActive", m.Phase())
	}
	msgs := m.Messages()
	if len(msgs) != 2 || msgs[1].Role != model.RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestSelectConversation_LoadFailure(t *testing.T) {
	f := newFakeBackend()
	f.failMessages = true
	m, _ := newTestManager(t, f)

	err := m.SelectConversation(context.Background(), "gone")
	if err == nil {
		t.Fatal("expected load failure")
	}
	// The conversation still becomes active with an empty log so the
	// user can see the error in place and retry.
	if m.Phase() != PhaseActive {
		t.Errorf("Phase = %v, want PhaseActive after failed load", m.Phase())
	}
	if got := m.ActiveConversationID(); got != "gone" {
		t.Errorf("ActiveConversationID = %q, want gone", got)
	}
	if len(m.Messages()) != 0 {
		t.Error("failed load should leave an empty log")
	}
	if m.Err() == nil || m.Err().Op != OpLoadMessages {
		t.Errorf("error slot = %v, want OpLoadMessages failure", m.Err())
	}
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if err := m.SendMessage(context.Background(), "what is the policy?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user + assistant", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "what is the policy?" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "the answer" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if len(msgs[1].SourcesUsed) != 1 {
		t.Errorf("SourcesUsed = %v", msgs[1].SourcesUsed)
	}
	if m.Sending() {
		t.Error("Sending should be false after completion")
	}
}

func TestSendMessage_WhitespaceIsNoOp(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if err := m.SendMessage(context.Background(), "   \n\t "); err != nil {
		t.Fatalf("whitespace send should be a no-op, got %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendCount != 0 {
		t.Errorf("sendCount = %d, want 0 network calls", f.sendCount)
	}
}

func TestSendMessage_NoConversation(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	err := m.SendMessage(context.Background(), "hello?")
	if !errors.Is(err, ErrNoConversation) {
		t.Fatalf("err = %v, want ErrNoConversation", err)
	}
}

func TestSendMessage_BusyWhileInFlight(t *testing.T) {
	f := newFakeBackend()
	f.sendDelay = 150 * time.Millisecond
	m, _ := newTestManager(t, f)

	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.SendMessage(context.Background(), "slow question") }()

	// Wait until the first send is observed in flight.
	deadline := time.Now().Add(2 * time.Second)
	for !m.Sending() {
		if time.Now().After(deadline) {
			t.Fatal("first send never entered flight")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := m.SendMessage(context.Background(), "second question"); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent send err = %v, want ErrBusy", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendCount != 1 {
		t.Errorf("sendCount = %d, want 1", f.sendCount)
	}
}

func TestSendMessage_FailureAppendsNothing(t *testing.T) {
	f := newFakeBackend()
	f.failSend = "model overloaded"
	m, _ := newTestManager(t, f)

	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	err := m.SendMessage(context.Background(), "doomed question")
	if err == nil {
		t.Fatal("expected send failure")
	}

	// The log gains nothing on failure; the caller keeps the typed input
	// and can retry the same question.
	if msgs := m.Messages(); len(msgs) != 0 {
		t.Errorf("messages = %+v, want empty log after failure", msgs)
	}
	if m.Err() == nil || m.Err().DisplayMessage() != "model overloaded" {
		t.Errorf("error slot = %v, want backend detail", m.Err())
	}
	if m.Sending() {
		t.Error("Sending should clear after failure")
	}
}

func TestSendMessage_SelectionAndMode(t *testing.T) {
	f := newFakeBackend()
	f.sources = []map[string]string{
		{"source_id": "a", "name": "a.pdf", "visibility": "org-wide"},
	}
	m, _ := newTestManager(t, f)

	if err := m.LoadSources(context.Background()); err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	// "a" is org-wide, so the load selected it already.
	m.ToggleSource("b") // not in the source list; must be filtered out
	if err := m.SetMode(model.ModeWebSearch); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if err := m.SendMessage(context.Background(), "q"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	f.mu.Lock()
	body := f.lastSendBody
	f.mu.Unlock()

	sel, ok := body["selected_sources"].([]any)
	if !ok || len(sel) != 1 || sel[0] != "a" {
		t.Errorf("selected_sources = %v, want [a]", body["selected_sources"])
	}
	if body["mode"] != "web_search" {
		t.Errorf("mode = %v, want web_search", body["mode"])
	}
}

func TestSendMessage_NoSelectionSendsNull(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	if _, err := m.NewConversation(context.Background()); err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if err := m.SendMessage(context.Background(), "q"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if v, present := f.lastSendBody["selected_sources"]; !present || v != nil {
		t.Errorf("selected_sources = %v, want explicit null", v)
	}
}

// =============================================================================
// SOURCE AND MODE TESTS
// =============================================================================

func TestToggleSource_EmptyIDIsNoOp(t *testing.T) {
	m := NewManager(api.NewClient("http://unused"), "u1", "o1")

	if on := m.ToggleSource(""); on {
		t.Error("empty id should never select")
	}
	if ids := m.SelectedSourceIDs(); ids != nil {
		t.Errorf("SelectedSourceIDs = %v, want nil", ids)
	}
}

func TestToggleSource_SelfInverse(t *testing.T) {
	m := NewManager(api.NewClient("http://unused"), "u1", "o1")

	if on := m.ToggleSource("s1"); !on {
		t.Error("first toggle should select")
	}
	if !m.IsSelected("s1") {
		t.Error("s1 should be selected")
	}
	if on := m.ToggleSource("s1"); on {
		t.Error("second toggle should deselect")
	}
	if m.IsSelected("s1") {
		t.Error("s1 should be deselected")
	}
}

func TestSetMode_Invalid(t *testing.T) {
	m := NewManager(api.NewClient("http://unused"), "u1", "o1")

	if err := m.SetMode(model.QueryMode("hybrid")); err == nil {
		t.Fatal("invalid mode should be rejected")
	}
	if m.Mode() != model.ModeRAG {
		t.Errorf("Mode = %v, want unchanged ModeRAG", m.Mode())
	}
}

func TestLoadSources_DefaultsSelectionToOrgWide(t *testing.T) {
	f := newFakeBackend()
	f.sources = []map[string]string{
		{"source_id": "a", "name": "a.pdf", "visibility": "org-wide"},
		{"source_id": "b", "name": "b.pdf", "visibility": "personal"},
	}
	m, _ := newTestManager(t, f)

	if err := m.LoadSources(context.Background()); err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	ids := m.SelectedSourceIDs()
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("SelectedSourceIDs = %v, want org-wide [a]", ids)
	}
	if m.IsSelected("b") {
		t.Error("personal source should not be selected by default")
	}
}

func TestLoadSources_ReloadResetsSelection(t *testing.T) {
	f := newFakeBackend()
	f.sources = []map[string]string{
		{"source_id": "a", "name": "a.pdf", "visibility": "org-wide"},
		{"source_id": "b", "name": "b.pdf", "visibility": "personal"},
	}
	m, _ := newTestManager(t, f)

	if err := m.LoadSources(context.Background()); err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	m.ToggleSource("a") // deselect the default
	m.ToggleSource("b")

	f.mu.Lock()
	f.sources = f.sources[:1] // b disappears
	f.mu.Unlock()

	if err := m.LoadSources(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	ids := m.SelectedSourceIDs()
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("SelectedSourceIDs = %v, want reset to org-wide [a]", ids)
	}
	if m.IsSelected("b") {
		t.Error("selection of vanished source should be gone")
	}
}

// =============================================================================
// UPLOAD TESTS
// =============================================================================

func TestUploadDocument_Failure(t *testing.T) {
	f := newFakeBackend()
	m, _ := newTestManager(t, f)

	_, err := m.UploadDocument(context.Background(),
		strings.NewReader("content"), "big.bin", model.VisibilityPersonal)
	if err == nil {
		t.Fatal("expected upload rejection")
	}
	if m.Err() == nil || m.Err().Op != OpUpload {
		t.Errorf("error slot = %v, want OpUpload failure", m.Err())
	}
	if got := m.Err().DisplayMessage(); got != "file too large" {
		t.Errorf("DisplayMessage = %q, want backend detail", got)
	}
}
