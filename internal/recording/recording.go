// Package recording keeps a rolling video buffer of the terminal
// window. Frames are captured with screencapture at a fixed rate and
// encoded into an mp4 with ffmpeg when a clip is requested, so the
// operator can always pull the recent past on demand.
package recording

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/output"
)

// Config holds the buffer tunables from the [recording] section.
type Config struct {
	BufferDuration time.Duration
	FPS            int
	QualityCRF     int
	MaxRate        string
	BufSize        string
	TempDir        string
}

// Manager owns the rolling frame buffer. Failures degrade to "no
// recording available" statuses, never to errors that stop monitoring.
type Manager struct {
	cfg      Config
	windowID func() string
	con      *output.Console

	mu        sync.Mutex
	active    bool
	cancel    context.CancelFunc
	framesDir string
	started   time.Time
	frameSeq  int

	runCapture runner
	runEncode  runner
}

type runner func(ctx context.Context, name string, args ...string) error

func execRun(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// New creates an inactive manager.
func New(cfg Config, windowID func() string, con *output.Console) *Manager {
	return &Manager{
		cfg:        cfg,
		windowID:   windowID,
		con:        con,
		runCapture: execRun,
		runEncode:  execRun,
	}
}

// EnsureRunning starts the rolling buffer if it is not already
// capturing. Requires ffmpeg on the PATH and an attached window.
func (m *Manager) EnsureRunning() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return nil
	}
	if m.windowID() == "" {
		return fmt.Errorf("no terminal window")
	}
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	framesDir := filepath.Join(m.cfg.TempDir, fmt.Sprintf("frames_%d", time.Now().UnixNano()))
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("frames dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.framesDir = framesDir
	m.cancel = cancel
	m.active = true
	m.started = time.Now()
	m.frameSeq = 0

	go m.captureLoop(ctx)
	m.con.Debug("rolling recording started in %s", framesDir)
	return nil
}

// captureLoop grabs frames at the configured rate and prunes frames
// older than the buffer duration.
func (m *Manager) captureLoop(ctx context.Context) {
	interval := time.Second / time.Duration(m.cfg.FPS)
	maxFrames := int(m.cfg.BufferDuration.Seconds()) * m.cfg.FPS

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		id := m.windowID()
		if id == "" {
			continue
		}

		m.mu.Lock()
		seq := m.frameSeq
		m.frameSeq++
		dir := m.framesDir
		m.mu.Unlock()

		path := filepath.Join(dir, fmt.Sprintf("frame_%09d.png", seq))
		if err := m.runCapture(ctx, "screencapture", "-x", "-o", "-l", id, path); err != nil {
			continue
		}

		if seq >= maxFrames {
			old := filepath.Join(dir, fmt.Sprintf("frame_%09d.png", seq-maxFrames))
			os.Remove(old)
		}
	}
}

// Stop halts capture and removes the frame buffer.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.cancel()
	m.active = false
	os.RemoveAll(m.framesDir)
}

// Active reports whether the buffer is capturing.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SaveClip encodes the buffered frames into an mp4 and returns its
// path and size.
func (m *Manager) SaveClip(ctx context.Context) (string, int64, error) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return "", 0, fmt.Errorf("recording not active")
	}
	dir := m.framesDir
	m.mu.Unlock()

	frames, err := sortedFrames(dir)
	if err != nil || len(frames) == 0 {
		return "", 0, fmt.Errorf("no frames buffered")
	}

	// Re-link frames into a dense 0..n sequence for ffmpeg's image
	// input, since pruning leaves gaps in the numbering.
	clipDir, err := os.MkdirTemp(m.cfg.TempDir, "clip_")
	if err != nil {
		return "", 0, err
	}
	defer os.RemoveAll(clipDir)
	for i, frame := range frames {
		link := filepath.Join(clipDir, fmt.Sprintf("frame_%d.png", i))
		if err := os.Link(frame, link); err != nil {
			data, rerr := os.ReadFile(frame)
			if rerr != nil {
				continue
			}
			os.WriteFile(link, data, 0o644)
		}
	}

	out := filepath.Join(m.cfg.TempDir, fmt.Sprintf("rolling_%s.mp4", time.Now().Format("20060102_150405")))
	err = m.runEncode(ctx, "ffmpeg", "-y",
		"-framerate", fmt.Sprint(m.cfg.FPS),
		"-i", filepath.Join(clipDir, "frame_%d.png"),
		"-c:v", "libx264",
		"-crf", fmt.Sprint(m.cfg.QualityCRF),
		"-preset", "fast",
		"-maxrate", m.cfg.MaxRate,
		"-bufsize", m.cfg.BufSize,
		out)
	if err != nil {
		return "", 0, fmt.Errorf("encoding clip: %w", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return "", 0, fmt.Errorf("clip not written: %w", err)
	}
	return out, info.Size(), nil
}

// Status describes the buffer for the /rs command.
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return "🎬 Recording inactive"
	}
	frames, _ := sortedFrames(m.framesDir)
	return fmt.Sprintf("🎬 Recording active: %d frames buffered, running %v",
		len(frames), time.Since(m.started).Round(time.Second))
}

// Healthy reports whether the buffer is producing frames.
func (m *Manager) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return false
	}
	frames, err := sortedFrames(m.framesDir)
	return err == nil && len(frames) > 0
}

func sortedFrames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
