// Package app wires the client together: terminal, screenshots,
// recording, vision classifier, monitoring manager, relay bridge, and
// the operator command registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stathism/ClaudeOnTheBeach/internal/bridge"
	"github.com/stathism/ClaudeOnTheBeach/internal/commands"
	"github.com/stathism/ClaudeOnTheBeach/internal/config"
	"github.com/stathism/ClaudeOnTheBeach/internal/detect"
	"github.com/stathism/ClaudeOnTheBeach/internal/monitor"
	"github.com/stathism/ClaudeOnTheBeach/internal/output"
	"github.com/stathism/ClaudeOnTheBeach/internal/question"
	"github.com/stathism/ClaudeOnTheBeach/internal/recording"
	"github.com/stathism/ClaudeOnTheBeach/internal/screenshot"
	"github.com/stathism/ClaudeOnTheBeach/internal/terminal"
	"github.com/stathism/ClaudeOnTheBeach/internal/util"
	"github.com/stathism/ClaudeOnTheBeach/internal/vision"
	"github.com/stathism/ClaudeOnTheBeach/internal/vision/anthropic"
)

// terminalDriver is the slice of terminal.Controller the dispatcher
// needs. Narrow so tests can substitute a fake.
type terminalDriver interface {
	Launch(ctx context.Context, startDir string) error
	WindowID() string
	SendCommand(ctx context.Context, text string) error
	SendMultiline(ctx context.Context, text string) error
	SendCharSequence(ctx context.Context, seq string) error
}

// Options are the command-line overrides applied on top of the config
// file.
type Options struct {
	ServerURL   string
	Screenshots string
	Timeout     time.Duration
}

// App owns every component for one client run.
type App struct {
	cfg *config.Config
	con *output.Console

	terminal   terminalDriver
	screens    monitor.ScreenProvider
	recorder   *recording.Manager
	client     *bridge.Client
	classifier *vision.Classifier
	vocab      vision.Vocabulary
	questions  *question.Tracker
	manager    *monitor.Manager
	registry   *commands.Registry
}

// New builds the component graph from configuration.
func New(cfg *config.Config, opts Options, con *output.Console) *App {
	if opts.ServerURL != "" {
		cfg.Server.URL = opts.ServerURL
	}
	if opts.Screenshots != "" {
		cfg.Screenshots.Folder = opts.Screenshots
		cfg.Screenshots.SaveLocally = true
	}
	if opts.Timeout > 0 {
		cfg.Monitor.MaxWaitTimeoutSecs = int(opts.Timeout.Seconds())
	}

	term := terminal.New(con)
	screens := screenshot.New(term.WindowID, cfg.Screenshots.Folder, cfg.Screenshots.SaveLocally, con)
	recorder := recording.New(recording.Config{
		BufferDuration: util.Secs(cfg.Recording.BufferDurationSecs),
		FPS:            cfg.Recording.FPS,
		QualityCRF:     cfg.Recording.QualityCRF,
		MaxRate:        cfg.Recording.MaxRate,
		BufSize:        cfg.Recording.BufSize,
		TempDir:        cfg.Recording.TempDir,
	}, term.WindowID, con)

	vocab := vision.Vocabulary{
		StatusWords:        cfg.Completion.StatusWords,
		RunningIndicators:  cfg.Completion.RunningIndicators,
		EscInterruptMarker: cfg.Completion.EscInterruptPattern,
		ModelSwitchPhrases: cfg.Completion.ModelSwitchPhrases,
	}

	var backend vision.Backend
	if key := os.Getenv(cfg.LLM.APIKeyEnv); key != "" {
		backend = anthropic.New(key, cfg.LLM.Model, cfg.LLM.MaxTokens)
	} else {
		con.Warn("%s not set, screen analysis disabled", cfg.LLM.APIKeyEnv)
	}
	classifier := vision.NewClassifier(backend, vocab, cfg.Monitor.DualScreenshotDelayMS, con.Debug)

	questions := question.NewTracker(question.Vocabulary{
		HighConfidence:      cfg.Questions.HighConfidence,
		MediumConfidence:    cfg.Questions.MediumConfidence,
		LowConfidence:       cfg.Questions.LowConfidence,
		FileOperations:      cfg.Questions.FileOperations,
		Permissions:         cfg.Questions.Permissions,
		Configuration:       cfg.Questions.Configuration,
		SimilarityThreshold: cfg.Questions.SimilarityThreshold,
		SimilarityHigh:      cfg.Questions.SimilarityHigh,
		SimilarityMedium:    cfg.Questions.SimilarityMedium,
		SimilarityLow:       cfg.Questions.SimilarityLow,
	}, cfg.Questions.ContextWindow, util.Secs(cfg.Questions.TimeoutSecs))

	client := bridge.NewClient(cfg.Server.URL, con)

	manager := monitor.NewManager(monitor.Config{
		StatusInterval:          util.Secs(cfg.Monitor.StatusIntervalSecs),
		CompletionCheckInterval: util.Secs(cfg.Monitor.CompletionCheckSecs),
		InitialWait:             util.Secs(cfg.Monitor.InitialWaitSecs),
		MaxWait:                 util.Secs(cfg.Monitor.MaxWaitTimeoutSecs),
		DualDelay:               util.Millis(cfg.Monitor.DualScreenshotDelayMS),
		TickInterval:            time.Second,
		PausedSleep:             util.Millis(cfg.Monitor.PausedSleepMS),
		StaticCheckInterval:     util.Secs(cfg.StaticScreen.CheckIntervalSecs),
	}, monitor.Deps{
		Screens:    screens,
		Sink:       client,
		Classifier: classifier,
		Vocab:      vocab,
		Static:     detect.NewStaticTracker(util.Secs(cfg.StaticScreen.TimeoutSecs)),
		Arbiter: detect.NewArbiter(detect.ArbiterConfig{
			StrongIndicators:   cfg.Completion.StrongIndicators,
			WeakIndicators:     cfg.Completion.WeakIndicators,
			TaskPatterns:       cfg.Completion.TaskPatterns,
			StatusWords:        cfg.Completion.StatusWords,
			RunningIndicators:  cfg.Completion.RunningIndicators,
			EscInterruptMarker: cfg.Completion.EscInterruptPattern,
			ConfirmationDelay:  util.Secs(cfg.Completion.ConfirmationDelaySecs),
		}),
		Questions: questions,
		Recorder:  recorder,
		Console:   con,
	})

	return &App{
		cfg:        cfg,
		con:        con,
		terminal:   term,
		screens:    screens,
		recorder:   recorder,
		client:     client,
		classifier: classifier,
		vocab:      vocab,
		questions:  questions,
		manager:    manager,
		registry:   commands.NewRegistry(),
	}
}

// Run launches the terminal, pairs with the relay, and serves operator
// commands until the context is canceled.
func (a *App) Run(ctx context.Context, startDir string) error {
	if err := a.terminal.Launch(ctx, startDir); err != nil {
		return err
	}
	// Claude needs a moment to start and show its trust prompt.
	time.Sleep(4 * time.Second)

	a.con.Debug("client id %s", a.client.ClientID())
	a.con.Info("pairing code: %s", a.client.PairingCode())
	a.con.Info("%s", a.con.Wrap(fmt.Sprintf(
		"Open Telegram, message @ClaudeOnTheBeach_bot, and send the code %s to take control of this session.",
		a.client.PairingCode())))
	if err := a.client.Connect(ctx); err != nil {
		a.con.Warn("relay unavailable, running locally: %v", err)
		<-ctx.Done()
		return nil
	}
	defer a.client.Close()

	pairingTimeout := util.Secs(a.cfg.Server.PairingTimeoutSecs)
	if err := a.client.WaitForPairing(ctx, pairingTimeout); err != nil {
		a.con.Warn("pairing failed, running locally: %v", err)
		<-ctx.Done()
		return nil
	}

	a.sendInitialScreenshot(ctx)

	g, ctx := errgroup.WithContext(ctx)
	events := a.client.Listen(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-events:
				if !ok {
					return fmt.Errorf("relay connection closed")
				}
				a.dispatch(ctx, ev.Text)
			}
		}
	})

	err := g.Wait()
	a.manager.Retire()
	a.recorder.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// dispatch implements the command/input routing protocol: raise the
// priority flag before touching the terminal, let registered handlers
// claim the text, otherwise deliver it as an input response or a fresh
// command.
func (a *App) dispatch(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	a.manager.Pause()

	if a.registry.Dispatch(ctx, a, trimmed) {
		a.manager.Resume()
		return
	}

	if a.manager.WaitingForInput() || a.screenNeedsInput(ctx) {
		a.deliverInput(ctx, trimmed)
		return
	}

	a.con.Info("command: %s", output.Truncate(trimmed, 50))
	if err := a.terminal.SendCommand(ctx, trimmed); err != nil {
		a.client.SendStatus("❌ Failed to execute command in terminal")
		a.manager.Resume()
		return
	}

	a.manager.Resume()
	a.manager.Start(ctx, trimmed)
}

// deliverInput answers the question on screen. Prompts that mention
// option+enter take the multi-line continuation binding. A delivered
// answer starts a fresh monitoring session so its outcome is watched
// even when the previous session already timed out.
func (a *App) deliverInput(ctx context.Context, trimmed string) {
	a.con.Info("input response: %s", output.Truncate(trimmed, 50))

	var err error
	if multilinePrompt(a.questions.Last()) {
		err = a.terminal.SendMultiline(ctx, trimmed)
	} else {
		err = a.terminal.SendCommand(ctx, trimmed)
	}
	if err != nil {
		a.client.SendStatus("❌ Failed to deliver input to terminal")
		a.manager.Resume()
		return
	}

	a.client.SendStatus("📝 Sent response: " + output.Truncate(trimmed, 50))
	a.questions.Clear()
	a.manager.SetWaitingForInput(false)
	a.manager.Resume()
	a.manager.Start(ctx, "Completion after input: "+output.Truncate(trimmed, 50))
}

// multilinePrompt reports whether the question asked for a multi-line
// reply, which the prompt finishes with option+enter instead of enter.
func multilinePrompt(q string) bool {
	lower := strings.ToLower(q)
	return strings.Contains(lower, "option+enter") || strings.Contains(lower, "multi-line")
}

// screenNeedsInput re-checks the live screen when the tracked waiting
// flag is unset; a question can appear between monitoring ticks.
func (a *App) screenNeedsInput(ctx context.Context) bool {
	png, err := a.screens.Capture(ctx)
	if err != nil || len(png) == 0 {
		return false
	}
	report := vision.Validate(a.classifier.Classify(ctx, png, nil), a.vocab)
	return report.NeedsInput
}

func (a *App) sendInitialScreenshot(ctx context.Context) {
	png, err := a.screens.Capture(ctx)
	if err != nil || len(png) == 0 {
		return
	}
	a.client.SendImage(png, "initial")
}

// CaptureScreenshot implements commands.Controller.
func (a *App) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	png, err := a.screens.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("capture unavailable")
	}
	return png, nil
}

// QuickStatus classifies the current screen on demand for /status.
func (a *App) QuickStatus(ctx context.Context) (string, error) {
	png, err := a.CaptureScreenshot(ctx)
	if err != nil {
		return "", err
	}
	report := a.classifier.Classify(ctx, png, nil)
	report = vision.Validate(report, a.vocab)

	var b strings.Builder
	b.WriteString("📊 Current Status:\n")
	fmt.Fprintf(&b, "• Activity: %s\n", report.Summary)
	fmt.Fprintf(&b, "• Needs Input: %t\n", report.NeedsInput)
	fmt.Fprintf(&b, "• Is Complete: %t", report.IsComplete)
	if report.Question != "" {
		fmt.Fprintf(&b, "\n• Question: %s", report.Question)
	}
	if a.client.Paired() {
		fmt.Fprintf(&b, "\n• Relay: paired, last heard %v ago",
			time.Since(a.client.LastHeartbeat()).Round(time.Second))
	} else {
		b.WriteString("\n• Relay: not paired")
	}
	return b.String(), nil
}

// SendStatus implements commands.Controller.
func (a *App) SendStatus(text string) {
	a.client.SendStatus(text)
}

// SendImage implements commands.Controller.
func (a *App) SendImage(png []byte, caption string) {
	a.client.SendImage(png, caption)
}

// SendCharSequence implements commands.Controller.
func (a *App) SendCharSequence(ctx context.Context, seq string) error {
	return a.terminal.SendCharSequence(ctx, seq)
}

// SendToTerminal implements commands.Controller.
func (a *App) SendToTerminal(ctx context.Context, text string) error {
	return a.terminal.SendCommand(ctx, text)
}

// SendRecording encodes the rolling buffer and ships it to the
// operator.
func (a *App) SendRecording(ctx context.Context) (int64, error) {
	path, size, err := a.recorder.SaveClip(ctx)
	if err != nil {
		return 0, err
	}
	defer os.Remove(path)
	mp4, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	a.client.SendVideo(mp4, "Last 20 minutes")
	return size, nil
}

// RecordingStatus implements commands.Controller.
func (a *App) RecordingStatus() string {
	status := a.recorder.Status()
	if a.recorder.Active() && !a.recorder.Healthy() {
		status += "\n⚠️ No frames captured yet"
	}
	return status
}
