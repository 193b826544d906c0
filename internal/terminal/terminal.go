// Package terminal launches the monitored Claude session in a macOS
// Terminal window and injects operator input through AppleScript
// keystrokes.
package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

// runner executes an external command and returns its stdout.
// Injectable for tests.
type runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return strings.TrimSpace(string(out)), err
}

// Controller drives one Terminal window identified by its window id.
type Controller struct {
	windowID string
	con      *output.Console
	run      runner

	maxRetries int
	retryDelay time.Duration
}

// New creates a controller with no window attached yet.
func New(con *output.Console) *Controller {
	return &Controller{
		con:        con,
		run:        execRunner,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// WindowID returns the attached Terminal window id, empty before
// Launch.
func (c *Controller) WindowID() string {
	return c.windowID
}

// Launch opens a new Terminal window running claude in startDir and
// records its window id for all later captures and keystrokes.
func (c *Controller) Launch(ctx context.Context, startDir string) error {
	script := fmt.Sprintf(`
tell application "Terminal"
	activate
	do script "cd \"%s\" && claude"
	set windowId to id of front window
	return windowId
end tell`, escapeAppleScript(startDir))

	id, err := c.run(ctx, "osascript", "-e", script)
	if err != nil {
		return fmt.Errorf("starting Terminal: %w", err)
	}
	c.windowID = id
	c.con.Success("started Claude in Terminal window %s", id)
	return nil
}

// cleanInput strips the stray newlines chat clients append so a
// one-line command arrives as one line.
func cleanInput(text string) string {
	text = strings.TrimRight(text, "\n\r ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	return strings.TrimSpace(text)
}

// escapeAppleScript escapes text for embedding inside an AppleScript
// double-quoted string.
func escapeAppleScript(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\t", " ",
		"`", "\\`",
		"$", "\\$",
	)
	return r.Replace(text)
}

// SendCommand types text into the window and presses Enter, retrying
// on osascript failures.
func (c *Controller) SendCommand(ctx context.Context, text string) error {
	if c.windowID == "" {
		return fmt.Errorf("no terminal window")
	}
	clean := cleanInput(text)
	script := fmt.Sprintf(`
tell application "Terminal"
	set targetWindow to window id %s
	set frontmost of targetWindow to true
	set index of targetWindow to 1
	activate
end tell

delay 0.1

tell application "System Events"
	tell process "Terminal"
		keystroke "%s"
		delay 0.1
		keystroke return
	end tell
end tell`, c.windowID, escapeAppleScript(clean))

	err := c.retry(ctx, "send command", script)
	if err == nil {
		return nil
	}

	// Some inputs trip the combined keystroke script; typing the text
	// and pressing Enter as separate scripts usually still lands.
	c.con.Warn("combined keystroke failed, splitting text and enter: %v", err)
	if splitErr := c.SendTextOnly(ctx, clean); splitErr != nil {
		return err
	}
	return c.SendEnter(ctx)
}

// SendTextOnly types text without pressing Enter.
func (c *Controller) SendTextOnly(ctx context.Context, text string) error {
	if c.windowID == "" {
		return fmt.Errorf("no terminal window")
	}
	script := fmt.Sprintf(`
tell application "Terminal"
	set targetWindow to window id %s
	set frontmost of targetWindow to true
	set index of targetWindow to 1
	activate
end tell

tell application "System Events"
	tell process "Terminal"
		keystroke "%s"
	end tell
end tell`, c.windowID, escapeAppleScript(cleanInput(text)))

	return c.retry(ctx, "send text", script)
}

// SendMultiline types text and presses Option+Enter, the multi-line
// continuation binding in the Claude prompt.
func (c *Controller) SendMultiline(ctx context.Context, text string) error {
	if c.windowID == "" {
		return fmt.Errorf("no terminal window")
	}
	script := fmt.Sprintf(`
tell application "Terminal"
	set targetWindow to window id %s
	set frontmost of targetWindow to true
	set index of targetWindow to 1
	activate
end tell

delay 0.1

tell application "System Events"
	tell process "Terminal"
		keystroke "%s"
		delay 0.1
		key code 36 using {option down}
	end tell
end tell`, c.windowID, escapeAppleScript(cleanInput(text)))

	return c.retry(ctx, "send multiline", script)
}

// SendEnter presses Enter alone, used to recover a typed but
// unexecuted command.
func (c *Controller) SendEnter(ctx context.Context) error {
	if c.windowID == "" {
		return fmt.Errorf("no terminal window")
	}
	script := fmt.Sprintf(`
tell application "Terminal"
	set targetWindow to window id %s
	set frontmost of targetWindow to true
	set index of targetWindow to 1
	activate
end tell

delay 0.1

tell application "System Events"
	tell process "Terminal"
		keystroke return
	end tell
end tell`, c.windowID)

	_, err := c.run(ctx, "osascript", "-e", script)
	return err
}

// charKeyMap maps sequence characters to AppleScript key actions.
var charKeyMap = map[byte]string{
	'>': "key code 124", // right arrow
	'<': "key code 123", // left arrow
	'^': "key code 126", // up arrow
	'v': "key code 125", // down arrow
	'e': "keystroke return",
	'x': "key code 53", // escape
}

// ParseCharSequence turns "vv>e" or "v v > e" into AppleScript key
// actions, skipping unknown characters.
func ParseCharSequence(seq string) []string {
	var tokens []string
	if strings.Contains(seq, " ") {
		tokens = strings.Fields(seq)
	} else {
		for _, r := range seq {
			tokens = append(tokens, string(r))
		}
	}

	var actions []string
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len(tok) != 1 {
			continue
		}
		if action, ok := charKeyMap[tok[0]]; ok {
			actions = append(actions, action)
		}
	}
	return actions
}

// SendCharSequence delivers a parsed key sequence with small delays
// between keys so menus can keep up.
func (c *Controller) SendCharSequence(ctx context.Context, seq string) error {
	if c.windowID == "" {
		return fmt.Errorf("no terminal window")
	}
	actions := ParseCharSequence(seq)
	if len(actions) == 0 {
		return fmt.Errorf("no valid keys in sequence %q", seq)
	}

	var b strings.Builder
	b.WriteString("tell application \"Terminal\"\n\tactivate\nend tell\n\ndelay 0.2\n\ntell application \"System Events\"\n")
	for _, action := range actions {
		fmt.Fprintf(&b, "\t%s\n\tdelay 0.1\n", action)
	}
	b.WriteString("end tell")

	_, err := c.run(ctx, "osascript", "-e", b.String())
	if err != nil {
		return fmt.Errorf("sending key sequence: %w", err)
	}
	c.con.Debug("sent %d keys for sequence %q", len(actions), seq)
	return nil
}

func (c *Controller) retry(ctx context.Context, what, script string) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		if _, err := c.run(ctx, "osascript", "-e", script); err != nil {
			lastErr = err
			c.con.Warn("%s attempt %d failed: %v", what, attempt+1, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", what, c.maxRetries, lastErr)
}
