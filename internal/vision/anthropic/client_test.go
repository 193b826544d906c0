package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": [{"type": "text", "text": "{\"status\": \"ok\"}"}]}`))
	}))
	defer srv.Close()

	c := New("test-key", "claude-3-5-sonnet-20241022", 200)
	c.endpoint = srv.URL

	reply, err := c.Send(context.Background(), [][]byte{[]byte("png1"), []byte("png2")}, "analyze")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != `{"status": "ok"}` {
		t.Errorf("Send() = %q", reply)
	}

	msgs := gotBody["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	if len(content) != 3 {
		t.Fatalf("got %d content blocks, want 2 images + 1 text", len(content))
	}
	last := content[2].(map[string]any)
	if last["type"] != "text" || last["text"] != "analyze" {
		t.Errorf("last block = %v, want the prompt text", last)
	}
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer srv.Close()

	c := New("k", "m", 10)
	c.endpoint = srv.URL

	if _, err := c.Send(context.Background(), [][]byte{[]byte("png")}, "p"); err == nil {
		t.Error("Send() should surface API errors")
	}
}
