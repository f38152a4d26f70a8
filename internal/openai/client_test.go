package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dataforge-ai/dataforge/pkg/models"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(baseURL, 5*time.Second)
}

// --- ValidateKey tests ---

func TestValidateKey_EmptyKeyNoNetworkCall(t *testing.T) {
	var calls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	for _, key := range []string{"", "   ", "\t\n"} {
		res := c.ValidateKey(context.Background(), key)
		if res.Valid {
			t.Errorf("key %q: expected rejection", key)
		}
		if res.Reason != "missing key" {
			t.Errorf("key %q: unexpected reason %q", key, res.Reason)
		}
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("expected 0 network calls, got %d", got)
	}
}

func TestValidateKey_Accepted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-valid" {
			t.Errorf("unexpected auth header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer ts.Close()

	res := newTestClient(t, ts.URL).ValidateKey(context.Background(), "sk-valid")
	if !res.Valid {
		t.Fatalf("expected acceptance, got reason %q", res.Reason)
	}
}

func TestValidateKey_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	res := newTestClient(t, ts.URL).ValidateKey(context.Background(), "sk-bad")
	if res.Valid {
		t.Fatal("expected rejection")
	}
	if res.Reason != "invalid key" {
		t.Errorf("unexpected reason: %q", res.Reason)
	}
}

func TestValidateKey_ProviderErrorMessagePassedThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate limit reached for requests"},
		})
	}))
	defer ts.Close()

	res := newTestClient(t, ts.URL).ValidateKey(context.Background(), "sk-limited")
	if res.Valid {
		t.Fatal("expected rejection")
	}
	if res.Reason != "Rate limit reached for requests" {
		t.Errorf("unexpected reason: %q", res.Reason)
	}
}

func TestValidateKey_NonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	res := newTestClient(t, ts.URL).ValidateKey(context.Background(), "sk-any")
	if res.Valid {
		t.Fatal("expected rejection")
	}
	if res.Reason != "unknown error" {
		t.Errorf("unexpected reason: %q", res.Reason)
	}
}

func TestValidateKey_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused from here on

	res := newTestClient(t, ts.URL).ValidateKey(context.Background(), "sk-any")
	if res.Valid {
		t.Fatal("expected rejection")
	}
	if res.Reason != "could not validate, check connectivity" {
		t.Errorf("unexpected reason: %q", res.Reason)
	}
}

// --- Complete tests ---

func TestComplete_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(completionResponse{
			Choices: []struct {
				Message ChatMessage `json:"message"`
			}{
				{Message: ChatMessage{Role: "assistant", Content: `[{"name":"Ada"}]`}},
			},
		})
	}))
	defer ts.Close()

	out, err := newTestClient(t, ts.URL).Complete(context.Background(), "sk-valid",
		models.ModelGPT4o, []ChatMessage{{Role: "user", Content: "generate"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"name":"Ada"}]` {
		t.Errorf("unexpected content: %q", out)
	}
}

func TestComplete_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Complete(context.Background(), "sk-bad",
		models.ModelGPT4, []ChatMessage{{Role: "user", Content: "hi"}})
	if err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse{})
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Complete(context.Background(), "sk-valid",
		models.ModelGPT4, []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestComplete_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	_, err := newTestClient(t, ts.URL).Complete(context.Background(), "sk-valid",
		models.ModelGPT4, []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
}
