// Package monitor drives the per-command monitoring loop: capture a
// dual-frame sample, classify it, arbitrate completion, surface
// questions, and emit at most one notification per tick.
package monitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/detect"
	"github.com/stathism/ClaudeOnTheBeach/internal/output"
	"github.com/stathism/ClaudeOnTheBeach/internal/question"
	"github.com/stathism/ClaudeOnTheBeach/internal/vision"
)

// ScreenProvider supplies terminal captures. A nil primary image with
// a nil error means a transient failure; the loop skips that tick.
type ScreenProvider interface {
	CaptureDual(ctx context.Context, delay time.Duration) (primary, secondary []byte, err error)
	Capture(ctx context.Context) ([]byte, error)
}

// MessageSink delivers notifications to the remote operator.
// Implementations are fire-and-forget; delivery failures must not
// propagate back into the loop.
type MessageSink interface {
	SendStatus(text string)
	SendImage(png []byte, caption string)
}

// Recorder keeps the rolling video buffer alive across commands.
type Recorder interface {
	EnsureRunning() error
}

// State is the terminal state of a monitoring session.
type State int

const (
	StateRunning State = iota
	StateCompleted
	StateTimedOut
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Config holds the loop cadence.
type Config struct {
	StatusInterval          time.Duration // slower cadence for status lines
	CompletionCheckInterval time.Duration // fast cadence for completion checks
	InitialWait             time.Duration // delay before the first sample
	MaxWait                 time.Duration // hard per-command cap
	DualDelay               time.Duration // gap between the two frames
	TickInterval            time.Duration
	PausedSleep             time.Duration
	StaticCheckInterval     time.Duration // gap between static-screen samples
}

// Deps are the session collaborators. Classifier, Static, Arbiter, and
// Questions are required; Recorder may be nil.
type Deps struct {
	Screens    ScreenProvider
	Sink       MessageSink
	Classifier *vision.Classifier
	Vocab      vision.Vocabulary
	Static     *detect.StaticTracker
	Arbiter    *detect.Arbiter
	Questions  *question.Tracker
	Recorder   Recorder
	Console    *output.Console
}

// Session monitors one command until completion, timeout, or
// cancellation. Exactly one session ticks at a time; the Manager
// enforces retire-before-start.
type Session struct {
	cfg  Config
	deps Deps

	command  string
	taskType detect.TaskType

	start            time.Time
	lastStatusUpdate time.Time
	lastStatusText   string
	lastStaticCheck  time.Time
	lastStatic       detect.StaticResult
	completionSent   bool

	paused  *atomic.Bool
	waiting *atomic.Bool

	result State
	done   chan struct{}
	now    func() time.Time
}

func newSession(cfg Config, deps Deps, command string, paused, waiting *atomic.Bool) *Session {
	return &Session{
		cfg:      cfg,
		deps:     deps,
		command:  command,
		taskType: detect.ClassifyTask(command),
		paused:   paused,
		waiting:  waiting,
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Run executes the loop until a terminal state. The result is recorded
// before the done channel closes, so a canceller that blocks on Done
// always observes it.
func (s *Session) Run(ctx context.Context) State {
	state := s.run(ctx)
	s.result = state
	close(s.done)
	return state
}

func (s *Session) run(ctx context.Context) State {
	s.deps.Console.Debug("monitoring %q as task type %s", output.Truncate(s.command, 50), s.taskType)

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.EnsureRunning(); err != nil {
			s.deps.Console.Warn("recording unavailable: %v", err)
		}
	}

	if !sleepCtx(ctx, s.cfg.InitialWait) {
		return StateCanceled
	}
	s.start = s.now()

	for {
		if ctx.Err() != nil {
			return StateCanceled
		}
		if s.paused.Load() {
			if !sleepCtx(ctx, s.cfg.PausedSleep) {
				return StateCanceled
			}
			continue
		}

		now := s.now()
		if now.Sub(s.start) > s.cfg.MaxWait {
			s.deps.Console.Debug("monitoring timeout after %v", now.Sub(s.start).Round(time.Second))
			return StateTimedOut
		}

		if state, terminal := s.tick(ctx, now); terminal {
			return state
		}

		if !sleepCtx(ctx, s.cfg.TickInterval) {
			return StateCanceled
		}
	}
}

// tick runs one sample-classify-arbitrate pass. It returns a terminal
// state only on first completion.
func (s *Session) tick(ctx context.Context, now time.Time) (State, bool) {
	sinceLast := now.Sub(s.lastStatusUpdate)
	checkCompletion := sinceLast >= s.cfg.CompletionCheckInterval
	sendStatus := sinceLast >= s.cfg.StatusInterval
	if !checkCompletion && !sendStatus {
		return StateRunning, false
	}

	primary, secondary, err := s.deps.Screens.CaptureDual(ctx, s.cfg.DualDelay)
	if err != nil || len(primary) == 0 {
		// Transient capture failure: back off a full status interval.
		if err != nil {
			s.deps.Console.Warn("capture failed: %v", err)
		}
		s.lastStatusUpdate = now
		return StateRunning, false
	}

	report := s.deps.Classifier.Classify(ctx, primary, secondary)
	report = vision.Validate(report, s.deps.Vocab)

	static := s.lastStatic
	if s.lastStaticCheck.IsZero() || now.Sub(s.lastStaticCheck) >= s.cfg.StaticCheckInterval {
		static = s.deps.Static.Update(primary)
		s.lastStatic = static
		s.lastStaticCheck = now
	}
	text := report.Summary
	if report.Question != "" {
		text += " " + report.Question
	}
	verdict := s.deps.Arbiter.Analyze(text, report, s.taskType, static)
	if verdict.IsComplete {
		report.IsComplete = true
		report.Summary = fmt.Sprintf("Task completed (%s)", verdict.Method)
		s.deps.Console.Debug("completion via %s (confidence %.2f): %v", verdict.Method, verdict.Confidence, verdict.Reasoning)
	}

	var statusMsg string
	switch {
	case report.IsComplete:
		statusMsg = "✅ " + report.Summary
		if !s.completionSent {
			s.deps.Sink.SendStatus(statusMsg)
			s.completionSent = true
			s.deps.Questions.Clear()
			s.waiting.Store(false)
			s.sendCompletionScreenshot(ctx)
			s.deps.Console.Success("task complete: %s", report.Summary)
			return StateCompleted, true
		}

	case s.isQuestion(report):
		statusMsg = "❓ " + report.Summary
		ok, confidence, category := s.deps.Questions.Detect(report)
		if ok && s.deps.Questions.ShouldNotify(report.Question, confidence) {
			s.deps.Questions.Record(report.Question, confidence, category)
			s.deps.Console.Info("question (%s, %.2f): %s", category, confidence, output.Truncate(report.Question, 50))
			// The screenshot is the notification; no text message.
			if png, err := s.deps.Screens.Capture(ctx); err == nil && len(png) > 0 {
				s.deps.Sink.SendImage(png, "question")
			}
		}
		// Waiting for input either way, duplicate or not.
		s.waiting.Store(true)

	default:
		statusMsg = "⏳ " + report.Summary
		if statusMsg != s.lastStatusText && sendStatus {
			s.deps.Sink.SendStatus(statusMsg)
		}
	}

	s.lastStatusText = statusMsg
	if sendStatus {
		s.lastStatusUpdate = now
	}
	return StateRunning, false
}

func (s *Session) isQuestion(report vision.StatusReport) bool {
	ok, _, _ := s.deps.Questions.Detect(report)
	return ok
}

// sendCompletionScreenshot is best effort; a capture failure never
// blocks the completion notification that already went out.
func (s *Session) sendCompletionScreenshot(ctx context.Context) {
	png, err := s.deps.Screens.Capture(ctx)
	if err != nil || len(png) == 0 {
		s.deps.Console.Warn("completion screenshot failed")
		return
	}
	s.deps.Sink.SendImage(png, "completion")
}

// Done is closed when the session has fully torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result is the session's terminal state, valid once Done is closed.
func (s *Session) Result() State {
	return s.result
}

// sleepCtx sleeps for d unless the context is canceled first. Returns
// false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
