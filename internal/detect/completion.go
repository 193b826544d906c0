package detect

import (
	"fmt"
	"strings"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/vision"
)

// Method identifies which detection path produced a completion verdict.
type Method string

const (
	MethodStrong       Method = "strong_indicators"
	MethodTaskSpecific Method = "task_specific"
	MethodLLMValidated Method = "llm_validated"
	MethodWeak         Method = "weak_indicators"
	MethodStatic       Method = "static_screen"
	MethodNone         Method = "none"
)

// CompletionResult is the arbiter's verdict for one tick.
type CompletionResult struct {
	IsComplete bool
	Confidence float64
	Method     Method
	Indicators []string
	Reasoning  []string
}

// ArbiterConfig holds the completion vocabularies and the weak-signal
// dwell delay.
type ArbiterConfig struct {
	StrongIndicators   []string
	WeakIndicators     []string
	TaskPatterns       map[string][]string
	StatusWords        []string
	RunningIndicators  []string
	EscInterruptMarker string
	ConfirmationDelay  time.Duration
}

// Arbiter combines classifier output, keyword vocabularies, the static
// screen signal, and task-type completion phrases into one verdict.
// Detection paths are evaluated in strict priority order; the first
// match wins. The only state carried across ticks is the weak-signal
// dwell timestamp.
type Arbiter struct {
	cfg ArbiterConfig

	weakSince time.Time
	now       func() time.Time
}

// NewArbiter creates an arbiter with the given vocabularies.
func NewArbiter(cfg ArbiterConfig) *Arbiter {
	return &Arbiter{cfg: cfg, now: time.Now}
}

// Analyze runs the five detection paths against the available text
// signal and returns the first verdict that fires.
func (a *Arbiter) Analyze(text string, report vision.StatusReport, taskType TaskType, static StaticResult) CompletionResult {
	lower := strings.ToLower(text)

	// 1. Strong indicators override everything.
	if found := containsAny(lower, a.cfg.StrongIndicators); len(found) > 0 {
		return CompletionResult{
			IsComplete: true,
			Confidence: 0.95,
			Method:     MethodStrong,
			Indicators: found,
			Reasoning:  []string{fmt.Sprintf("Found strong completion indicators: %v", found)},
		}
	}

	// 2. Task-specific vocabulary for the classified command type.
	if patterns, ok := a.cfg.TaskPatterns[string(taskType)]; ok {
		if found := containsAny(lower, patterns); len(found) > 0 {
			return CompletionResult{
				IsComplete: true,
				Confidence: 0.85,
				Method:     MethodTaskSpecific,
				Indicators: found,
				Reasoning:  []string{fmt.Sprintf("Found task-specific completion for %s: %v", taskType, found)},
			}
		}
	}

	// 3. Classifier verdict, validated against active indicators. A
	// contradicted verdict falls through to the weaker paths.
	if report.IsComplete && len(a.activeIndicators(lower)) == 0 {
		weak := containsAny(lower, a.cfg.WeakIndicators)
		return CompletionResult{
			IsComplete: true,
			Confidence: 0.80,
			Method:     MethodLLMValidated,
			Indicators: weak,
			Reasoning:  []string{fmt.Sprintf("LLM completion validated: %v", weak)},
		}
	}

	// 4. Weak indicators, confirmed by continuous dwell time.
	if found := containsAny(lower, a.cfg.WeakIndicators); len(found) > 0 {
		if a.confirmWeak() {
			return CompletionResult{
				IsComplete: true,
				Confidence: 0.70,
				Method:     MethodWeak,
				Indicators: found,
				Reasoning:  []string{fmt.Sprintf("Confirmed weak completion indicators: %v", found)},
			}
		}
	} else {
		// Signal gone, dwell starts over next time it appears.
		a.weakSince = time.Time{}
	}

	// 5. Static screen fallback.
	if static.ShouldComplete {
		return CompletionResult{
			IsComplete: true,
			Confidence: 0.60,
			Method:     MethodStatic,
			Indicators: []string{"static_screen"},
			Reasoning:  []string{fmt.Sprintf("Static screen for %.1fs", static.Duration.Seconds())},
		}
	}

	return CompletionResult{Method: MethodNone}
}

// activeIndicators returns any in-progress cues present in the text:
// the interrupt marker, transient status words, or running phrases.
func (a *Arbiter) activeIndicators(lower string) []string {
	var active []string
	active = append(active, containsAny(lower, a.cfg.StatusWords)...)
	active = append(active, containsAny(lower, a.cfg.RunningIndicators)...)
	if a.cfg.EscInterruptMarker != "" && strings.Contains(lower, strings.ToLower(a.cfg.EscInterruptMarker)) {
		active = append(active, a.cfg.EscInterruptMarker)
	}
	return active
}

// confirmWeak tracks how long the weak signal has persisted and only
// confirms once it has dwelled for the configured delay.
func (a *Arbiter) confirmWeak() bool {
	now := a.now()
	if a.weakSince.IsZero() {
		a.weakSince = now
		return false
	}
	return now.Sub(a.weakSince) >= a.cfg.ConfirmationDelay
}

// Reset clears the dwell state for a new command.
func (a *Arbiter) Reset() {
	a.weakSince = time.Time{}
}

// containsAny returns the needles found in haystack, case-insensitively.
// haystack must already be lowercased.
func containsAny(haystack string, needles []string) []string {
	var found []string
	for _, n := range needles {
		if strings.Contains(haystack, strings.ToLower(n)) {
			found = append(found, n)
		}
	}
	return found
}
