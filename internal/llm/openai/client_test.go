package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentplan/internal/llm"
)

func newServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestClient_Chat(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[]"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	})

	client := NewClient("test-key", "gpt-4o-mini", url)
	resp, err := client.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewMessage(llm.RoleSystem, "plan"),
			llm.NewMessage(llm.RoleUser, "add 1 and 2"),
		},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Message.Content != "[]" || resp.StopReason != llm.StopReasonStop {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 4 {
		t.Errorf("Expected 4 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("Unexpected request: %+v", got)
	}
	if client.Provider() != "openai" || client.Model() != "gpt-4o-mini" {
		t.Error("Unexpected provider or model")
	}
}

func TestClient_ChatNoChoices(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	if _, err := NewClient("k", "m", url).Chat(context.Background(), &llm.ChatRequest{}); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestEmbedder_OrdersByIndex(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	})

	e := NewEmbedder("k", "", url)
	if e.Model() != DefaultEmbeddingModel {
		t.Errorf("Expected default model, got %s", e.Model())
	}
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("Vectors not in input order: %v", vecs)
	}
}

func TestEmbedder_Empty(t *testing.T) {
	vecs, err := NewEmbedder("k", "").Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Expected nil result for no input, got %v, %v", vecs, err)
	}
}
