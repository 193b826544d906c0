package vision

import (
	"context"
)

// Backend sends one or two PNG images plus a prompt to a multimodal
// model and returns the raw text reply.
type Backend interface {
	Send(ctx context.Context, images [][]byte, prompt string) (string, error)
}

// Classifier produces StatusReports from screenshots. A nil backend is
// valid and degrades every classification to ReadyReport.
type Classifier struct {
	backend    Backend
	vocab      Vocabulary
	frameGapMS int

	// logf receives diagnostic messages; nil disables logging.
	logf func(format string, args ...any)
}

// NewClassifier creates a classifier. backend may be nil.
func NewClassifier(backend Backend, vocab Vocabulary, frameGapMS int, logf func(string, ...any)) *Classifier {
	return &Classifier{
		backend:    backend,
		vocab:      vocab,
		frameGapMS: frameGapMS,
		logf:       logf,
	}
}

// Classify analyzes one or two frames and returns a StatusReport.
//
// Failure handling is asymmetric on purpose: a backend call or parse
// failure yields ProcessingReport (a command is likely still running),
// while an unconfigured backend yields ReadyReport (nothing to wait on).
func (c *Classifier) Classify(ctx context.Context, primary, secondary []byte) StatusReport {
	if c.backend == nil {
		c.debug("no vision backend configured, assuming ready")
		return ReadyReport()
	}

	images := [][]byte{primary}
	dual := len(secondary) > 0
	var prompt string
	if dual {
		images = append(images, secondary)
		prompt = DualPrompt(c.vocab, c.frameGapMS)
	} else {
		prompt = SinglePrompt(c.vocab)
	}

	reply, err := c.backend.Send(ctx, images, prompt)
	if err != nil {
		c.debug("vision backend failed: %v", err)
		return ProcessingReport()
	}

	report, err := ParseReply(reply)
	if err != nil {
		c.debug("unparseable vision reply: %v", err)
		return ProcessingReport()
	}

	return report
}

func (c *Classifier) debug(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}
