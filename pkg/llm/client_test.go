package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestNewClient_RequiresEndpointAndModel(t *testing.T) {
	if _, err := NewClient(&Config{Model: "m"}, zap.NewNop()); err == nil {
		t.Error("expected error for missing endpoint")
	}
	if _, err := NewClient(&Config{Endpoint: "http://localhost:8080/v1"}, zap.NewNop()); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestClient_EmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "test-model"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	vec, err := client.EmbedText(context.Background(), "Toy Story animation comedy")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(vec))
	}
}

func TestClient_EmbedText_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "test-model"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.EmbedText(context.Background(), "anything"); err == nil {
		t.Error("expected error for empty response data")
	}
}

func TestClient_EmbedText_RetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"embedding": [0.5], "index": 0}]}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "test-model"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	vec, err := client.EmbedText(context.Background(), "anything")
	if err != nil {
		t.Fatalf("EmbedText failed after retry: %v", err)
	}
	if len(vec) != 1 {
		t.Fatalf("expected 1 element, got %d", len(vec))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestClient_EmbedText_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "test-model"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.EmbedText(context.Background(), "anything"); err == nil {
		t.Error("expected error for server failure")
	}
}
