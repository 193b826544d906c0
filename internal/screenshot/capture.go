// Package screenshot captures the monitored Terminal window with
// screencapture. The -o flag grabs onscreen-only windows, which works
// even when the terminal sits behind other windows.
package screenshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

// runner executes an external command. Injectable for tests.
type runner func(ctx context.Context, name string, args ...string) error

// Provider captures the terminal window. It serializes captures with a
// mutex since concurrent screencapture invocations corrupt each other.
type Provider struct {
	windowID func() string
	con      *output.Console

	folder      string
	saveLocally bool

	mu  sync.Mutex
	run runner
}

// New creates a provider. windowID is read per capture so the provider
// can be built before the terminal window exists.
func New(windowID func() string, folder string, saveLocally bool, con *output.Console) *Provider {
	return &Provider{
		windowID:    windowID,
		con:         con,
		folder:      folder,
		saveLocally: saveLocally,
		run:         execRun,
	}
}

func execRun(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Capture grabs one PNG of the terminal window. Transient failures
// return nil bytes and a nil error so callers skip the tick instead of
// aborting.
func (p *Provider) Capture(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.windowID()
	if id == "" {
		return nil, fmt.Errorf("no terminal window")
	}

	tmp, err := os.CreateTemp("", "cotb-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := p.run(ctx, "screencapture", "-x", "-o", "-l", id, path); err != nil {
		p.con.Debug("screencapture failed: %v", err)
		return nil, nil
	}

	png, err := os.ReadFile(path)
	if err != nil || len(png) == 0 {
		p.con.Debug("screenshot file unreadable or empty")
		return nil, nil
	}

	if p.saveLocally && p.folder != "" {
		p.saveCopy(png)
	}
	return png, nil
}

// CaptureDual grabs two frames separated by delay, the sample the
// classifier uses to tell an active screen from a settled one.
func (p *Provider) CaptureDual(ctx context.Context, delay time.Duration) ([]byte, []byte, error) {
	primary, err := p.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	if primary == nil {
		return nil, nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-time.After(delay):
	}

	secondary, err := p.Capture(ctx)
	if err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

// saveCopy writes a timestamped copy into the screenshots folder.
// Failures only log; local archiving never blocks delivery.
func (p *Provider) saveCopy(png []byte) {
	if err := os.MkdirAll(p.folder, 0o755); err != nil {
		p.con.Warn("screenshot folder: %v", err)
		return
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405.000"))
	path := filepath.Join(p.folder, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		p.con.Warn("saving screenshot: %v", err)
		return
	}
	p.con.Debug("saved screenshot %s", path)
}
