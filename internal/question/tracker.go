// Package question scores "is this a question a human must answer",
// deduplicates against recent question history, and decides whether a
// notification should go out.
package question

import (
	"regexp"
	"strings"
	"time"

	"github.com/stathism/ClaudeOnTheBeach/internal/vision"
)

// Category labels the cue that produced a question's confidence score.
type Category string

const (
	CategoryNone          Category = "none"
	CategoryUnknown       Category = "unknown"
	CategoryGeneral       Category = "general"
	CategoryHigh          Category = "high_confidence"
	CategoryMedium        Category = "medium_confidence"
	CategoryLow           Category = "low_confidence"
	CategoryFileOperation Category = "file_operation"
	CategoryPermission    Category = "permission"
	CategoryConfiguration Category = "configuration"
	CategoryNumbered      Category = "numbered_options"
	CategorySelection     Category = "selection_menu"
	CategoryYesNo         Category = "yes_no"
)

// Vocabulary holds the keyword groups and thresholds for detection
// and similarity, usually populated from the [questions] config.
type Vocabulary struct {
	HighConfidence   []string
	MediumConfidence []string
	LowConfidence    []string
	FileOperations   []string
	Permissions      []string
	Configuration    []string

	SimilarityThreshold float64 // "same question" cutoff
	SimilarityHigh      float64
	SimilarityMedium    float64
	SimilarityLow       float64
}

// Record is one notified question kept for duplicate checks.
type Record struct {
	Text       string
	Confidence float64
	Category   Category
	Timestamp  time.Time
}

var (
	numberedRe = regexp.MustCompile(`\d+\.`)
	selectorRe = regexp.MustCompile(`[❯>*]`)
	yesNoRe    = regexp.MustCompile(`\b(yes|no|y|n)\b`)
)

// Tracker detects questions, tracks recent ones in a bounded history,
// and arbitrates notification decisions. Not safe for concurrent use;
// the monitoring loop owns exactly one.
type Tracker struct {
	vocab   Vocabulary
	window  int
	timeout time.Duration

	last    string
	history []Record

	now func() time.Time
}

// NewTracker creates a tracker keeping at most window records, each
// ignored for duplicate checks once older than timeout.
func NewTracker(vocab Vocabulary, window int, timeout time.Duration) *Tracker {
	return &Tracker{
		vocab:   vocab,
		window:  window,
		timeout: timeout,
		now:     time.Now,
	}
}

// Detect scores whether the report carries a question a human must
// answer. Returns false when the report needs no input or has no
// question text.
func (t *Tracker) Detect(report vision.StatusReport) (bool, float64, Category) {
	if !report.NeedsInput || report.Question == "" {
		return false, 0, CategoryNone
	}
	confidence, category := t.scoreQuestion(report.Question)
	return true, confidence, category
}

// scoreQuestion returns the maximum confidence across keyword-group
// membership and structural cues.
func (t *Tracker) scoreQuestion(text string) (float64, Category) {
	lower := strings.ToLower(text)
	confidence := 0.0
	category := CategoryUnknown

	raise := func(floor float64, cat Category) {
		if floor > confidence {
			confidence = floor
			category = cat
		}
	}

	if containsAnyPhrase(lower, t.vocab.HighConfidence) {
		raise(0.95, CategoryHigh)
	}
	if confidence < 0.95 && containsAnyPhrase(lower, t.vocab.MediumConfidence) {
		raise(0.85, CategoryMedium)
	}
	if confidence < 0.85 && containsAnyPhrase(lower, t.vocab.LowConfidence) {
		raise(0.70, CategoryLow)
	}
	if containsAnyPhrase(lower, t.vocab.FileOperations) {
		raise(0.90, CategoryFileOperation)
	}
	if containsAnyPhrase(lower, t.vocab.Permissions) {
		raise(0.88, CategoryPermission)
	}
	if containsAnyPhrase(lower, t.vocab.Configuration) {
		raise(0.85, CategoryConfiguration)
	}

	if strings.Contains(text, "?") {
		if confidence < 0.80 {
			confidence = 0.80
			if category == CategoryUnknown {
				category = CategoryGeneral
			}
		}
	}
	if numberedRe.MatchString(text) {
		raise(0.92, CategoryNumbered)
	}
	if selectorRe.MatchString(text) {
		raise(0.90, CategorySelection)
	}
	if yesNoRe.MatchString(lower) {
		raise(0.88, CategoryYesNo)
	}

	return confidence, category
}

// ShouldNotify decides whether to surface a question. A near-duplicate
// of the last sent question never re-notifies; beyond that, higher
// confidence tolerates shorter recency windows.
func (t *Tracker) ShouldNotify(text string, confidence float64) bool {
	if t.last != "" {
		if same, _, _ := t.SameQuestion(text, t.last); same {
			return false
		}
	}

	if confidence >= 0.85 {
		return true
	}
	if t.recentDuplicate(text, 30*time.Second) {
		return false
	}
	if confidence >= 0.70 {
		return !t.recentDuplicate(text, 10*time.Second)
	}
	return !t.recentDuplicate(text, 5*time.Second)
}

// recentDuplicate reports whether a same-question match exists in the
// history inside the given window. Records older than the tracker
// timeout never match.
func (t *Tracker) recentDuplicate(text string, window time.Duration) bool {
	now := t.now()
	for _, rec := range t.history {
		age := now.Sub(rec.Timestamp)
		if age > window || age > t.timeout {
			continue
		}
		if same, _, _ := t.SameQuestion(text, rec.Text); same {
			return true
		}
	}
	return false
}

// Record marks a question as sent, appending it to the bounded history.
func (t *Tracker) Record(text string, confidence float64, category Category) {
	t.last = text
	t.history = append(t.history, Record{
		Text:       text,
		Confidence: confidence,
		Category:   category,
		Timestamp:  t.now(),
	})
	if len(t.history) > t.window {
		t.history = t.history[len(t.history)-t.window:]
	}
}

// Clear drops the question state, for command boundaries.
func (t *Tracker) Clear() {
	t.last = ""
	t.history = nil
}

// Last returns the most recently recorded question text.
func (t *Tracker) Last() string {
	return t.last
}

// containsAnyPhrase reports whether any phrase appears in the already
// lowercased text.
func containsAnyPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
