// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/orgrag-tui/internal/model"
)

// =============================================================================
// CONVERSATION ENDPOINT TESTS
// =============================================================================

func TestListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations" {
			t.Errorf("path = %q, want /conversations", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "user_sample_001" {
			t.Errorf("user_id = %q, want user_sample_001", got)
		}
		io.WriteString(w, `{"conversations": [
			{"conversation_id": "c2", "title": "Onboarding docs", "created_at": "2025-02-01T10:00:00Z"},
			{"conversation_id": "c1", "title": "Travel policy", "created_at": "2025-01-01T10:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	convs, err := NewClient(srv.URL).ListConversations(context.Background(), "user_sample_001")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != "c2" || convs[0].Title != "Onboarding docs" {
		t.Errorf("first conversation = %+v", convs[0])
	}
}

func TestCreateConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"user_id":"user_sample_001"`) {
			t.Errorf("body missing user_id: %s", body)
		}
		io.WriteString(w, `{"conversation_id": "conv_new"}`)
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).CreateConversation(context.Background(), "user_sample_001")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if id != "conv_new" {
		t.Errorf("id = %q, want conv_new", id)
	}
}

func TestCreateConversation_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateConversation(context.Background(), "u1")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
}

func TestGetConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/c1" {
			t.Errorf("path = %q, want /conversations/c1", r.URL.Path)
		}
		io.WriteString(w, `{"conversation_id": "c1", "messages": [
			{"message_id": "m1", "role": "user", "content": "What is the travel policy?"},
			{"message_id": "m2", "role": "assistant", "content": "The policy says...", "sources_used": ["policy.pdf"]}
		]}`)
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL).GetConversation(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != model.RoleAssistant || len(msgs[1].SourcesUsed) != 1 {
		t.Errorf("assistant message = %+v", msgs[1])
	}
}

func TestSendMessage_SelectedSources(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		wantBody string
	}{
		{"no restriction", nil, `"selected_sources":null`},
		{"explicit selection", []string{"s1", "s2"}, `"selected_sources":["s1","s2"]`},
		{"empty selection", []string{}, `"selected_sources":[]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				body = string(raw)
				io.WriteString(w, `{"answer": "done"}`)
			}))
			defer srv.Close()

			answer, err := NewClient(srv.URL).SendMessage(context.Background(),
				"c1", "u1", "question?", tc.selected, model.ModeRAG)
			if err != nil {
				t.Fatalf("SendMessage: %v", err)
			}
			if answer.Answer != "done" {
				t.Errorf("answer = %q, want done", answer.Answer)
			}
			if !strings.Contains(body, tc.wantBody) {
				t.Errorf("body = %s, want it to contain %s", body, tc.wantBody)
			}
			if !strings.Contains(body, `"mode":"rag"`) {
				t.Errorf("body missing mode: %s", body)
			}
		})
	}
}

func TestSendMessage_EmptyQuestion(t *testing.T) {
	_, err := NewClient("http://unused").SendMessage(context.Background(),
		"c1", "u1", "", nil, model.ModeRAG)
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
}

// =============================================================================
// SOURCE ENDPOINT TESTS
// =============================================================================

func TestListSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizations/org_sample_001/sources" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"sources": [
			{"source_id": "s1", "name": "handbook.pdf", "visibility": "org-wide"},
			{"source_id": "s2", "name": "notes.txt", "visibility": "personal"}
		]}`)
	}))
	defer srv.Close()

	sources, err := NewClient(srv.URL).ListSources(context.Background(), "org_sample_001", "user_sample_001")
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if !sources[0].IsOrgWide() || sources[1].IsOrgWide() {
		t.Errorf("visibility decoded wrong: %+v", sources)
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("visibility"); got != "personal" {
			t.Errorf("visibility = %q, want personal", got)
		}
		if got := r.FormValue("org_id"); got != "org_sample_001" {
			t.Errorf("org_id = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q, want report.pdf", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "fake pdf bytes" {
			t.Errorf("content = %q", content)
		}
		io.WriteString(w, `{"filename": "report.pdf", "chunks_added": 12, "total_documents": 40}`)
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).Upload(context.Background(),
		strings.NewReader("fake pdf bytes"), "report.pdf",
		"user_sample_001", "org_sample_001", model.VisibilityPersonal)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.ChunksAdded != 12 || result.TotalDocuments != 40 {
		t.Errorf("result = %+v", result)
	}
}

func TestUpload_RejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		io.WriteString(w, `{"detail": "file too large"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Upload(context.Background(),
		strings.NewReader("x"), "big.bin", "u1", "o1", model.VisibilityOrgWide)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.Detail != "file too large" {
		t.Errorf("Detail = %q, want server message", te.Detail)
	}
}

// =============================================================================
// ERROR DETAIL TESTS
// =============================================================================

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"string detail",
			`{"detail": "conversation not found"}`,
			"conversation not found",
		},
		{
			"validation items",
			`{"detail": [{"loc": ["body", "question"], "msg": "field required", "type": "value_error"},
			             {"loc": ["body", "mode"], "msg": "invalid mode", "type": "value_error"}]}`,
			"field required; invalid mode",
		},
		{
			"item without msg",
			`{"detail": [{"code": 7}]}`,
			`{"code": 7}`,
		},
		{
			"not json",
			`<html>bad gateway</html>`,
			"fallback",
		},
		{
			"empty detail",
			`{"detail": ""}`,
			"fallback",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractDetail([]byte(tc.body), "fallback"); got != tc.want {
				t.Errorf("extractDetail = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTransportError_Display(t *testing.T) {
	te := &TransportError{Status: 404, Detail: "conversation not found"}
	if got := te.DisplayMessage(); got != "conversation not found" {
		t.Errorf("DisplayMessage = %q", got)
	}
	if !strings.Contains(te.Error(), "404") {
		t.Errorf("Error() = %q, want status code included", te.Error())
	}
}

// =============================================================================
// HEALTH AND STATS TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "healthy"}`)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	err := NewClient(srv.URL).Health(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.Status != 0 {
		t.Errorf("Status = %d, want 0 for connection failure", te.Status)
	}
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"total_documents": 128, "collection_name": "org_docs"}`)
	}))
	defer srv.Close()

	stats, err := NewClient(srv.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDocuments != 128 || stats.CollectionName != "org_docs" {
		t.Errorf("stats = %+v", stats)
	}
}
