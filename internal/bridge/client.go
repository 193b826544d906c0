// Package bridge connects the client to the relay server over a
// websocket, pairs it with a remote operator via a short code, and
// carries notifications out and operator commands in.
package bridge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

// Pairing codes avoid characters easy to misread on a phone screen.
const codeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const (
	codeLength = 6
	pingWait   = 90 * time.Second
	writeWait  = 10 * time.Second
)

// CommandEvent is one operator message received from the relay.
type CommandEvent struct {
	Text string
}

// message is the wire format shared with the relay.
type message struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
	Format  string `json:"format,omitempty"`
	Caption string `json:"caption,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Client is the relay connection. Send methods are fire-and-forget:
// when unpaired or disconnected they log and drop, never error out,
// so the monitoring loop keeps working locally.
type Client struct {
	url      string
	code     string
	clientID string
	con      *output.Console

	writeMu sync.Mutex
	conn    *websocket.Conn

	paired        atomic.Bool
	lastHeartbeat atomic.Int64
}

// NewClient creates an unconnected client with a fresh pairing code.
func NewClient(serverURL string, con *output.Console) *Client {
	return &Client{
		url:      serverURL,
		code:     generateCode(),
		clientID: uuid.NewString(),
		con:      con,
	}
}

func generateCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; fall back to a fixed character rather than crash.
			buf[i] = codeAlphabet[0]
			continue
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}

// PairingCode returns the code the operator must send to the bot.
func (c *Client) PairingCode() string {
	return c.code
}

// ClientID returns the stable identifier for this client instance.
func (c *Client) ClientID() string {
	return c.clientID
}

// Paired reports whether an operator has claimed the pairing code.
func (c *Client) Paired() bool {
	return c.paired.Load()
}

// Connect dials the relay, announcing the pairing code in the URL.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, fmt.Sprintf("%s?code=%s", c.url, c.code), nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(pingWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pingWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	return nil
}

// WaitForPairing blocks until the relay confirms an operator entered
// the code, the timeout passes, or the context is canceled.
func (c *Client) WaitForPairing(ctx context.Context, timeout time.Duration) error {
	conn := c.connection()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	deadline := time.Now().Add(timeout)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pairing timeout after %v", timeout)
		}

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return fmt.Errorf("waiting for pairing: %w", err)
		}

		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "paired" {
			c.paired.Store(true)
			c.touchHeartbeat()
			c.con.Success("paired with operator %s", msg.Phone)
			conn.SetReadDeadline(time.Now().Add(pingWait))
			return nil
		}
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}

// Listen reads operator commands until the connection drops or the
// context is canceled. The returned channel closes on exit.
func (c *Client) Listen(ctx context.Context) <-chan CommandEvent {
	events := make(chan CommandEvent)
	conn := c.connection()
	go func() {
		defer close(events)
		if conn == nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				c.con.Warn("relay connection lost: %v", err)
				return
			}
			c.touchHeartbeat()

			var msg message
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Type != "command" {
				continue
			}
			select {
			case events <- CommandEvent{Text: msg.Text}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// SendStatus delivers a status line to the operator.
func (c *Client) SendStatus(text string) {
	c.send(message{Type: "status", Content: text})
}

// SendVideo delivers an mp4 clip with a caption.
func (c *Client) SendVideo(mp4 []byte, caption string) {
	c.send(message{
		Type:    "video",
		Content: base64.StdEncoding.EncodeToString(mp4),
		Format:  "mp4",
		Caption: caption,
	})
}

// SendImage delivers a PNG screenshot with a caption.
func (c *Client) SendImage(png []byte, caption string) {
	c.send(message{
		Type:    "screenshot",
		Content: base64.StdEncoding.EncodeToString(png),
		Format:  "png",
		Caption: caption,
	})
}

func (c *Client) send(msg message) {
	if !c.paired.Load() {
		c.con.Debug("not paired, dropping %s message", msg.Type)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.con.Warn("relay send failed: %v", err)
	}
}

func (c *Client) connection() *websocket.Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn
}

func (c *Client) touchHeartbeat() {
	c.lastHeartbeat.Store(time.Now().UnixNano())
}

// LastHeartbeat returns when the relay was last heard from.
func (c *Client) LastHeartbeat() time.Time {
	n := c.lastHeartbeat.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Close shuts the connection down; safe to call when never connected.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	err := c.conn.Close()
	c.conn = nil
	return err
}
