package explain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestChatGenerator_Generate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"**S3** stores objects."}}]}`))
	}))
	defer srv.Close()

	g := NewChatGenerator(ChatConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "test-model", Temperature: 0.2})
	text, err := g.Generate(context.Background(), Request{QuestionText: "Which service stores objects?", Correct: []string{"S3"}})
	if err != nil {
		t.Fatal(err)
	}
	if text != "**S3** stores objects." {
		t.Fatalf("text = %q", text)
	}
	if got.Model != "test-model" || got.Stream || got.Temperature == nil || *got.Temperature != 0.2 {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" ||
		!strings.Contains(got.Messages[0].Content, "Which service stores objects?") {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestChatGenerator_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail/chat/completions":
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	if _, err := NewChatGenerator(ChatConfig{BaseURL: srv.URL + "/fail"}).Generate(ctx, Request{}); err == nil ||
		!strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status 429", err)
	}
	if _, err := NewChatGenerator(ChatConfig{BaseURL: srv.URL + "/empty"}).Generate(ctx, Request{}); err == nil {
		t.Fatal("expected empty completion error")
	}
	if _, err := NewChatGenerator(ChatConfig{}).Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error without base url")
	}
}
