package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/hypnoguide/internal/reliability"
)

func TestNewTransportRequiresKey(t *testing.T) {
	for _, mode := range []string{"", "openai", "http"} {
		if _, err := NewTransport(TransportConfig{Mode: mode}); !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("mode %q: err = %v, want ErrMissingAPIKey", mode, err)
		}
	}
	if _, err := NewTransport(TransportConfig{Mode: "mock"}); err != nil {
		t.Fatalf("mock transport error = %v", err)
	}
	if _, err := NewTransport(TransportConfig{Mode: "carrier-pigeon", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func newCompletionServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const okCompletionBody = `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"reply\":\"drift\"}"},"finish_reason":"stop"}]}`

func assertJSONObjectRequest(t *testing.T, seen map[string]any) {
	t.Helper()
	rf, _ := seen["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("response_format = %#v, want json_object", seen["response_format"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %#v, want 2", seen["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	second, _ := msgs[1].(map[string]any)
	if first["role"] != "system" || second["role"] != "user" {
		t.Fatalf("unexpected roles: %v, %v", first["role"], second["role"])
	}
}

func TestOpenAITransportRoundTrip(t *testing.T) {
	var seen map[string]any
	ts := newCompletionServer(t, http.StatusOK, okCompletionBody, &seen)
	defer ts.Close()

	tr := NewOpenAITransport(ts.URL, "test-key", 5*time.Second)
	g := New(tr, Options{Model: "m"})
	reply, outcome := g.Respond(context.Background(), "hi", staticSummary("[]"), staticSummary("{}"))
	if outcome != OutcomeSuccess || reply.Reply != "drift" {
		t.Fatalf("got %q (%s)", reply.Reply, outcome)
	}
	assertJSONObjectRequest(t, seen)
}

func TestOpenAITransportServerError(t *testing.T) {
	ts := newCompletionServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil)
	defer ts.Close()

	g := New(NewOpenAITransport(ts.URL, "test-key", 5*time.Second), Options{Model: "m"})
	reply, outcome := g.Respond(context.Background(), "hi", staticSummary("[]"), staticSummary("{}"))
	if outcome != OutcomeTransportError {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeTransportError)
	}
	if !strings.HasPrefix(reply.Reply, "Error communicating with AI (request failed): ") {
		t.Fatalf("reply = %q", reply.Reply)
	}
}

func TestHTTPTransportRoundTrip(t *testing.T) {
	var seen map[string]any
	ts := newCompletionServer(t, http.StatusOK, okCompletionBody, &seen)
	defer ts.Close()

	c, err := NewHTTPTransport(ts.URL+"/", "test-key", 5*time.Second).Complete(context.Background(), Request{Model: "m", Directive: "d", Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got := extractContent(c); got != `{"reply":"drift"}` {
		t.Fatalf("extractContent() = %#v", got)
	}
	assertJSONObjectRequest(t, seen)
}

func TestHTTPTransportPlainTextBody(t *testing.T) {
	ts := newCompletionServer(t, http.StatusOK, "hello there", nil)
	defer ts.Close()

	c, err := NewHTTPTransport(ts.URL, "test-key", 5*time.Second).Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	reply, outcome := interpret(c)
	if outcome != OutcomeParseFallback || reply.Reply != "hello there" {
		t.Fatalf("got %q (%s)", reply.Reply, outcome)
	}
}

func TestHTTPTransportStatusError(t *testing.T) {
	ts := newCompletionServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, nil)
	defer ts.Close()

	_, err := NewHTTPTransport(ts.URL, "test-key", 5*time.Second).Complete(context.Background(), Request{})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("Complete() error = %v, want status 429", err)
	}
	if !reliability.IsTransient(err) {
		t.Fatalf("429 should be classified transient: %v", err)
	}
}

func TestOpenAITransportStatusError(t *testing.T) {
	ts := newCompletionServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, nil)
	defer ts.Close()

	_, err := NewOpenAITransport(ts.URL, "test-key", 5*time.Second).Complete(context.Background(), Request{})
	var statusErr *reliability.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Fatalf("Complete() error = %v, want 401 StatusError", err)
	}
	if reliability.IsTransient(err) {
		t.Fatalf("401 should not be transient")
	}
}

func TestMockTransportProducesParsableReply(t *testing.T) {
	g := New(NewMockTransport(), Options{})
	reply, outcome := g.Respond(context.Background(), "I want to relax", staticSummary("[]"), staticSummary("{}"))
	if outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q", outcome)
	}
	if !strings.Contains(reply.Reply, "I want to relax") || !strings.Contains(reply.Reply, "(pause)") {
		t.Fatalf("reply = %q", reply.Reply)
	}
}
