// Package commands routes operator messages to their handlers. The
// registry is an ordered list; the first handler that claims a message
// wins, and unclaimed text falls through to command/input dispatch.
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Controller is the surface handlers act on. The application wires it
// to the screenshot, terminal, recording, and bridge components.
type Controller interface {
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	QuickStatus(ctx context.Context) (string, error)
	SendStatus(text string)
	SendImage(png []byte, caption string)
	SendCharSequence(ctx context.Context, seq string) error
	SendToTerminal(ctx context.Context, text string) error
	SendRecording(ctx context.Context) (int64, error)
	RecordingStatus() string
}

// Handler claims and executes one kind of operator command.
type Handler interface {
	// TryHandle returns true when it consumed the message. Failures are
	// reported to the operator through the controller, never returned.
	TryHandle(ctx context.Context, ctrl Controller, text string) bool
}

// Registry dispatches to an ordered handler list, first match wins.
type Registry struct {
	handlers []Handler
}

// NewRegistry returns the default handler set in dispatch order.
func NewRegistry() *Registry {
	return &Registry{handlers: []Handler{
		ScreenshotHandler{},
		RecordingHandler{},
		RecordingStatusHandler{},
		StatusHandler{},
		HelpHandler{},
		CharHandler{},
		DoubleSlashHandler{},
	}}
}

// Dispatch offers text to each handler in order. Returns false when no
// handler claimed it, leaving the text for command/input dispatch.
func (r *Registry) Dispatch(ctx context.Context, ctrl Controller, text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, h := range r.handlers {
		if h.TryHandle(ctx, ctrl, trimmed) {
			return true
		}
	}
	return false
}

// Register appends a handler, consulted after the defaults.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

func matchesAny(text string, names ...string) bool {
	lower := strings.ToLower(text)
	for _, n := range names {
		if lower == n {
			return true
		}
	}
	return false
}

// ScreenshotHandler serves /s, /sc, and /screenshot.
type ScreenshotHandler struct{}

func (ScreenshotHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !matchesAny(text, "/s", "/sc", "/screenshot") {
		return false
	}
	png, err := ctrl.CaptureScreenshot(ctx)
	if err != nil || len(png) == 0 {
		ctrl.SendStatus("❌ Failed to capture screenshot")
		return true
	}
	ctrl.SendImage(png, "📸 Screenshot")
	return true
}

// RecordingHandler serves /r, /rec, and /rc by sending the rolling
// buffer contents.
type RecordingHandler struct{}

func (RecordingHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !matchesAny(text, "/r", "/rec", "/rc") {
		return false
	}
	size, err := ctrl.SendRecording(ctx)
	if err != nil {
		ctrl.SendStatus("🎬 No recording available. Execute a command first to start recording.")
		return true
	}
	ctrl.SendStatus(fmt.Sprintf("🎬 Rolling recording sent: %d bytes (last 20 minutes)", size))
	return true
}

// RecordingStatusHandler serves /rs, /rec-status, and /rc-status.
type RecordingStatusHandler struct{}

func (RecordingStatusHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !matchesAny(text, "/rs", "/rec-status", "/rc-status") {
		return false
	}
	ctrl.SendStatus(ctrl.RecordingStatus())
	return true
}

// StatusHandler serves /status and /t with a fresh classification of
// the current screen.
type StatusHandler struct{}

func (StatusHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !matchesAny(text, "/status", "/t") {
		return false
	}
	status, err := ctrl.QuickStatus(ctx)
	if err != nil {
		ctrl.SendStatus("❌ Failed to capture status screenshot")
		return true
	}
	ctrl.SendStatus(status)
	return true
}

// HelpHandler serves /help.
type HelpHandler struct{}

const helpText = `🏖️ Claude On The Beach Commands 🌊

📸 Screenshots:
• /s or /sc or /screenshot - Take a screenshot now

🎬 Recordings:
• /r or /rec or /rc - Get rolling 20-minute recording buffer
• /rs or /rec-status or /rc-status - Show recording status

⌨️ Keyboard Commands:
• /c or /char <seq> - Send keyboard commands
  > = right, < = left, ^ = up, v = down
  e = Enter, x = Escape
  Examples: /c vv>e or /char v v > e

📊 Status:
• /t or /status - Connection status

🔧 Native Claude Commands:
• All Claude commands can be accessed by using double //
• Examples: //help //init //shortcuts //search //exit`

func (HelpHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !matchesAny(text, "/help") {
		return false
	}
	ctrl.SendStatus(helpText)
	return true
}

// CharHandler serves /c <seq> and /char <seq>, injecting raw key
// sequences into the terminal.
type CharHandler struct{}

func (CharHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	lower := strings.ToLower(text)
	var seq string
	switch {
	case strings.HasPrefix(lower, "/char "):
		seq = strings.TrimSpace(text[len("/char "):])
	case strings.HasPrefix(lower, "/c "):
		seq = strings.TrimSpace(text[len("/c "):])
	default:
		return false
	}
	if seq == "" {
		ctrl.SendStatus("❌ /c or /char command requires arguments. Example: /c vvv>e or /char v v > e")
		return true
	}
	if err := ctrl.SendCharSequence(ctx, seq); err != nil {
		ctrl.SendStatus(fmt.Sprintf("❌ Failed to execute: /c %s", seq))
		return true
	}
	// Give the terminal a beat to react before the confirmation shot.
	time.Sleep(500 * time.Millisecond)
	if png, err := ctrl.CaptureScreenshot(ctx); err == nil && len(png) > 0 {
		ctrl.SendImage(png, fmt.Sprintf("⌨️ After /char: %s", seq))
	}
	ctrl.SendStatus(fmt.Sprintf("✅ Executed: /c %s", seq))
	return true
}

// DoubleSlashHandler converts //cmd to /cmd and delivers it to the
// terminal instead of interpreting it locally.
type DoubleSlashHandler struct{}

func (DoubleSlashHandler) TryHandle(ctx context.Context, ctrl Controller, text string) bool {
	if !strings.HasPrefix(text, "//") || len(text) <= 2 {
		return false
	}
	claudeCommand := text[1:]
	if err := ctrl.SendToTerminal(ctx, claudeCommand); err != nil {
		ctrl.SendStatus("❌ Failed to execute command in Claude terminal")
		return true
	}
	time.Sleep(1500 * time.Millisecond)
	if png, err := ctrl.CaptureScreenshot(ctx); err == nil && len(png) > 0 {
		ctrl.SendImage(png, fmt.Sprintf("🔧 Claude: %s", claudeCommand))
	}
	ctrl.SendStatus("🔧 Command executed in Claude terminal")
	return true
}
