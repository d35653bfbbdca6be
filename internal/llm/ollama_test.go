package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ghost/internal/config"
	"ghost/internal/types"
)

func testClient(url string, retries int) *OllamaClient {
	return NewOllamaClient(config.LLMConfig{
		BaseURL:        url,
		Model:          "test-model",
		TimeoutSeconds: 5,
		MaxRetries:     retries,
	})
}

func TestGenerateSendsOptionsAndReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "test-model" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		if req.Format != "json" {
			t.Errorf("json mode not requested: %q", req.Format)
		}
		if req.Options["num_predict"].(float64) != 600 {
			t.Errorf("num_predict = %v", req.Options["num_predict"])
		}
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: `{"intent":"text_response"}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	out, err := c.Generate(t.Context(),
		[]types.Message{types.NewMessage(types.RoleUser, "hi")},
		Options{Temperature: 0.3, MaxTokens: 600, JSONMode: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != `{"intent":"text_response"}` {
		t.Errorf("content = %q", out)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}, Done: true})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	out, err := c.Generate(t.Context(), []types.Message{types.NewMessage(types.RoleUser, "hi")}, Options{MaxTokens: 10})
	if err != nil {
		t.Fatalf("Generate failed after retries: %v", err)
	}
	if out != "ok" || calls.Load() != 2 {
		t.Errorf("out=%q calls=%d", out, calls.Load())
	}
}

func TestGenerateGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	if _, err := c.Generate(t.Context(), nil, Options{}); err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		if got := backoffDelay(i + 1); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestUnloadSendsZeroKeepAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["keep_alive"].(float64) != 0 {
			t.Errorf("keep_alive = %v", body["keep_alive"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testClient(srv.URL, 0).Unload(t.Context()); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testClient(srv.URL, 0).HealthCheck(t.Context()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}

	srv.Close()
	if err := testClient(srv.URL, 0).HealthCheck(t.Context()); err == nil {
		t.Error("expected failure against closed server")
	}
}
