package screenshot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

// writeRunner pretends to be screencapture by writing data to the
// output path argument.
func writeRunner(data []byte) runner {
	return func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(args[len(args)-1], data, 0o644)
	}
}

func newTestProvider(run runner) *Provider {
	p := New(func() string { return "4211" }, "", false, output.New(io.Discard, false))
	p.run = run
	return p
}

func TestCapture(t *testing.T) {
	p := newTestProvider(writeRunner([]byte("png-data")))
	png, err := p.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if string(png) != "png-data" {
		t.Errorf("Capture() = %q", png)
	}
}

func TestCaptureNoWindow(t *testing.T) {
	p := New(func() string { return "" }, "", false, output.New(io.Discard, false))
	p.run = writeRunner([]byte("x"))
	if _, err := p.Capture(context.Background()); err == nil {
		t.Error("expected error with no window id")
	}
}

func TestCaptureTransientFailureSkips(t *testing.T) {
	p := newTestProvider(func(ctx context.Context, name string, args ...string) error {
		return errors.New("window not found")
	})
	png, err := p.Capture(context.Background())
	if err != nil {
		t.Fatalf("transient failure must not error, got %v", err)
	}
	if png != nil {
		t.Errorf("png = %v, want nil for skip-tick", png)
	}
}

func TestCaptureDual(t *testing.T) {
	calls := 0
	p := newTestProvider(func(ctx context.Context, name string, args ...string) error {
		calls++
		return os.WriteFile(args[len(args)-1], []byte{'f', byte('0' + calls)}, 0o644)
	})

	start := time.Now()
	primary, secondary, err := p.CaptureDual(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("CaptureDual() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("frames only %v apart, want at least the delay", elapsed)
	}
	if string(primary) != "f1" || string(secondary) != "f2" {
		t.Errorf("frames = %q, %q", primary, secondary)
	}
}

func TestCaptureDualSkipsOnFailedPrimary(t *testing.T) {
	p := newTestProvider(func(ctx context.Context, name string, args ...string) error {
		return errors.New("boom")
	})
	primary, secondary, err := p.CaptureDual(context.Background(), time.Millisecond)
	if err != nil || primary != nil || secondary != nil {
		t.Errorf("got (%v, %v, %v), want all nil", primary, secondary, err)
	}
}

func TestCaptureSavesLocally(t *testing.T) {
	dir := t.TempDir()
	p := New(func() string { return "1" }, dir, true, output.New(io.Discard, false))
	p.run = writeRunner([]byte("png"))

	if _, err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("saved %d files, want 1", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".png" {
		t.Errorf("saved file %q is not a png", entries[0].Name())
	}
}
