package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/j0lvera/sanga/internal/conversation"
)

type capturedRequest struct {
	Path  string
	Auth  string
	CType string
	Body  map[string]any
}

func completionServer(t *testing.T, status int, body string) (*httptest.Server, func() capturedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		last capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var decoded map[string]any
		_ = json.NewDecoder(r.Body).Decode(&decoded)

		mu.Lock()
		last = capturedRequest{
			Path:  r.URL.Path,
			Auth:  r.Header.Get("Authorization"),
			CType: r.Header.Get("Content-Type"),
			Body:  decoded,
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func okBody(content string) string {
	resp := map[string]any{
		"id":      "gen-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     12,
			"completion_tokens": 3,
			"total_tokens":      15,
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestService(t *testing.T, url string, maxTokens int) *Service {
	t.Helper()
	s, err := NewService(Options{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "test-model",
		MaxTokens:   maxTokens,
		Temperature: 1,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestCompleteSuccess(t *testing.T) {
	server, last := completionServer(t, http.StatusOK, okBody("Hare Kṛṣṇa! Please accept my obeisances."))
	s := newTestService(t, server.URL, 500)

	history := []conversation.Record{
		conversation.UserRecord("earlier question"),
		conversation.AssistantRecord("earlier answer"),
		conversation.UserRecord("what is bhakti?"),
	}

	got, err := s.Complete(context.Background(), "be humble", history)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hare Kṛṣṇa! Please accept my obeisances." {
		t.Errorf("Complete = %q", got)
	}

	req := last()
	if req.Path != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", req.Path)
	}
	if req.Auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", req.Auth)
	}
	if !strings.HasPrefix(req.CType, "application/json") {
		t.Errorf("Content-Type = %q", req.CType)
	}
	if req.Body["model"] != "test-model" {
		t.Errorf("model = %v", req.Body["model"])
	}

	msgs, ok := req.Body["messages"].([]any)
	if !ok {
		t.Fatalf("messages missing from body: %v", req.Body)
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	wantText := []string{"be humble", "earlier question", "earlier answer", "what is bhakti?"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(msgs), len(wantRoles))
	}
	for i, raw := range msgs {
		m := raw.(map[string]any)
		if m["role"] != wantRoles[i] {
			t.Errorf("message %d role = %v, want %s", i, m["role"], wantRoles[i])
		}
		if !strings.Contains(fmt.Sprint(m["content"]), wantText[i]) {
			t.Errorf("message %d content = %v, want %q", i, m["content"], wantText[i])
		}
	}

	if req.Body["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v, want 500", req.Body["max_tokens"])
	}
	if v, found := req.Body["max_completion_tokens"]; found {
		t.Errorf("max_completion_tokens = %v, want absent", v)
	}
	if req.Body["temperature"] != float64(1) {
		t.Errorf("temperature = %v, want 1", req.Body["temperature"])
	}
}

func TestCompleteWithoutTokenCap(t *testing.T) {
	server, last := completionServer(t, http.StatusOK, okBody("ok"))
	s := newTestService(t, server.URL, 0)

	if _, err := s.Complete(context.Background(), "sys", []conversation.Record{conversation.UserRecord("hi")}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	body := last().Body
	for _, key := range []string{"max_tokens", "max_completion_tokens"} {
		if v, ok := body[key]; ok && v != float64(0) {
			t.Errorf("%s = %v, want unset", key, v)
		}
	}
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`},
		{"empty content", http.StatusOK, okBody("")},
		{"blank content", http.StatusOK, okBody("  \n ")},
		{"malformed body", http.StatusOK, `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := completionServer(t, tt.status, tt.body)
			s := newTestService(t, server.URL, 500)

			_, err := s.Complete(context.Background(), "sys", []conversation.Record{conversation.UserRecord("hi")})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrCompletionFailed) {
				t.Errorf("err = %v, want ErrCompletionFailed", err)
			}
		})
	}
}

func TestCompleteTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := newTestService(t, url, 500)
	_, err := s.Complete(context.Background(), "sys", []conversation.Record{conversation.UserRecord("hi")})
	if !errors.Is(err, ErrCompletionFailed) {
		t.Fatalf("err = %v, want ErrCompletionFailed", err)
	}
}
