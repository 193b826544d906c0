// Package vision turns terminal screenshots into structured state reports
// using a multimodal model backend. It owns the prompt contract, the reply
// parser, and the deterministic override rules applied on top of the
// model's judgment.
package vision

// StatusReport is the classifier's verdict for one polling tick.
type StatusReport struct {
	Summary          string `json:"status"`
	NeedsInput       bool   `json:"needs_input"`
	IsComplete       bool   `json:"is_complete"`
	Question         string `json:"question,omitempty"`
	ScreenshotsMatch bool   `json:"screenshots_match"`
}

// ProcessingReport is the conservative fallback when the backend errored
// or its reply could not be parsed: assume the terminal is still working.
func ProcessingReport() StatusReport {
	return StatusReport{
		Summary:          "Processing...",
		NeedsInput:       false,
		IsComplete:       false,
		ScreenshotsMatch: false,
	}
}

// ReadyReport is the fallback when no backend is configured at all:
// assume the terminal is ready for commands. A failing backend means a
// command is probably in flight; no backend means there is nothing to
// wait on, so the two fallbacks land on opposite sides.
func ReadyReport() StatusReport {
	return StatusReport{
		Summary:          "Status unknown (no API)",
		NeedsInput:       false,
		IsComplete:       true,
		ScreenshotsMatch: true,
	}
}
