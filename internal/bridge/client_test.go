package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

func TestPairingCode(t *testing.T) {
	c := NewClient("ws://example", output.New(io.Discard, false))
	code := c.PairingCode()
	if len(code) != codeLength {
		t.Fatalf("code length = %d, want %d", len(code), codeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("code %q contains %q outside the alphabet", code, r)
		}
	}
	for _, ambiguous := range "o0il1" {
		if strings.ContainsRune(code, ambiguous) {
			t.Errorf("code %q contains ambiguous character %q", code, ambiguous)
		}
	}
}

func TestConnectPairAndExchange(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotCode := make(chan string, 1)
	gotStatus := make(chan message, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCode <- r.URL.Query().Get("code")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteJSON(message{Type: "paired", Phone: "+15550100"})

		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("reading status: %v", err)
			return
		}
		gotStatus <- msg

		conn.WriteJSON(message{Type: "command", Text: "/screenshot"})
		// Hold the connection open until the client is done.
		conn.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(wsURL, output.New(io.Discard, false))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if code := <-gotCode; code != c.PairingCode() {
		t.Errorf("server saw code %q, client announced %q", code, c.PairingCode())
	}

	if err := c.WaitForPairing(ctx, 5*time.Second); err != nil {
		t.Fatalf("WaitForPairing() error = %v", err)
	}
	if !c.Paired() {
		t.Fatal("Paired() = false after pairing confirmation")
	}

	events := c.Listen(ctx)

	c.SendStatus("✅ Task completed")
	status := <-gotStatus
	if status.Type != "status" || status.Content != "✅ Task completed" {
		t.Errorf("server received %+v", status)
	}

	select {
	case ev := <-events:
		if ev.Text != "/screenshot" {
			t.Errorf("command text = %q", ev.Text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for command event")
	}
}

func TestSendImageEncodesBase64(t *testing.T) {
	upgrader := websocket.Upgrader{}
	got := make(chan message, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(message{Type: "paired"})
		var msg message
		if err := conn.ReadJSON(&msg); err == nil {
			got <- msg
		}
	}))
	defer srv.Close()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), output.New(io.Discard, false))
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()
	if err := c.WaitForPairing(ctx, 5*time.Second); err != nil {
		t.Fatalf("WaitForPairing() error = %v", err)
	}

	c.SendImage([]byte("png-bytes"), "completion")

	select {
	case msg := <-got:
		if msg.Type != "screenshot" || msg.Format != "png" || msg.Caption != "completion" {
			t.Errorf("server received %+v", msg)
		}
		var decoded []byte
		if err := json.Unmarshal([]byte(`"`+msg.Content+`"`), &decoded); err != nil || string(decoded) != "png-bytes" {
			t.Errorf("content %q does not decode to the original bytes", msg.Content)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for screenshot message")
	}
}

func TestSendWhileUnpairedDrops(t *testing.T) {
	c := NewClient("ws://nowhere", output.New(io.Discard, false))
	// Must not panic or block with no connection.
	c.SendStatus("hello")
	c.SendImage([]byte("png"), "caption")
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}
