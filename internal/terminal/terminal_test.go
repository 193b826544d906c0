package terminal

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

func newTestController(run runner) *Controller {
	c := New(output.New(io.Discard, false))
	c.run = run
	c.retryDelay = 0
	return c
}

func TestCleanInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ls -la\n", "ls -la"},
		{"line one\nline two", "line one line two"},
		{"  spaced  \r\n", "spaced"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := cleanInput(tt.in); got != tt.want {
			t.Errorf("cleanInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeAppleScript(t *testing.T) {
	got := escapeAppleScript(`echo "$HOME" \ ` + "`pwd`")
	for _, banned := range []string{`"$`, " `p"} {
		if strings.Contains(got, banned) {
			t.Errorf("escaped text %q still contains %q", got, banned)
		}
	}
	if !strings.Contains(got, `\"`) {
		t.Errorf("quotes not escaped in %q", got)
	}
}

func TestParseCharSequence(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"vv>e", 4},
		{"v v > e", 4},
		{"V X", 2}, // case insensitive
		{"vq>e", 3},
		{"qq", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseCharSequence(tt.seq); len(got) != tt.want {
			t.Errorf("ParseCharSequence(%q) = %v, want %d actions", tt.seq, got, tt.want)
		}
	}
}

func TestParseCharSequenceActions(t *testing.T) {
	got := ParseCharSequence("v>ex")
	want := []string{"key code 125", "key code 124", "keystroke return", "key code 53"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLaunchRecordsWindowID(t *testing.T) {
	c := newTestController(func(ctx context.Context, name string, args ...string) (string, error) {
		if name != "osascript" {
			t.Errorf("command = %q, want osascript", name)
		}
		return "4211", nil
	})
	if err := c.Launch(context.Background(), "/tmp/project"); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if c.WindowID() != "4211" {
		t.Errorf("WindowID() = %q", c.WindowID())
	}
}

func TestSendCommandRetries(t *testing.T) {
	calls := 0
	c := newTestController(func(ctx context.Context, name string, args ...string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("osascript: timeout")
		}
		return "", nil
	})
	c.windowID = "1"

	if err := c.SendCommand(context.Background(), "run tests"); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("run called %d times, want 3", calls)
	}
}

func TestSendCommandFallsBackToSplitDelivery(t *testing.T) {
	var scripts []string
	c := newTestController(func(ctx context.Context, name string, args ...string) (string, error) {
		script := args[len(args)-1]
		scripts = append(scripts, script)
		if strings.Contains(script, `keystroke "`) && strings.Contains(script, "keystroke return") {
			return "", errors.New("osascript: event timed out")
		}
		return "", nil
	})
	c.windowID = "1"

	if err := c.SendCommand(context.Background(), "run tests"); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}

	// Three combined attempts, then the text-only script, then enter.
	if len(scripts) != 5 {
		t.Fatalf("runner called %d times, want 5", len(scripts))
	}
	last := scripts[len(scripts)-1]
	if strings.Contains(last, `keystroke "`) || !strings.Contains(last, "keystroke return") {
		t.Errorf("final script is not a bare enter press:\n%s", last)
	}
}

func TestSendCommandRequiresWindow(t *testing.T) {
	c := newTestController(func(ctx context.Context, name string, args ...string) (string, error) {
		t.Error("runner must not be called without a window")
		return "", nil
	})
	if err := c.SendCommand(context.Background(), "ls"); err == nil {
		t.Error("expected error with no window attached")
	}
}

func TestSendCharSequenceRejectsEmpty(t *testing.T) {
	c := newTestController(func(ctx context.Context, name string, args ...string) (string, error) {
		t.Error("runner must not be called for an empty sequence")
		return "", nil
	})
	c.windowID = "1"
	if err := c.SendCharSequence(context.Background(), "qq"); err == nil {
		t.Error("expected error for sequence with no valid keys")
	}
}
