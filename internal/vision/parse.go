package vision

import (
	"encoding/json"
	"fmt"
)

// rawReport mirrors the wire format the backend is asked to emit.
// Pointer fields distinguish "absent" from zero values so the
// required-keys contract can be checked explicitly.
type rawReport struct {
	Status           *string `json:"status"`
	NeedsInput       *bool   `json:"needs_input"`
	IsComplete       *bool   `json:"is_complete"`
	Question         *string `json:"question"`
	ScreenshotsMatch *bool   `json:"screenshots_match"`
}

// ParseReply extracts the first balanced JSON object from the model's
// free-form reply and decodes it into a StatusReport. The model often
// wraps the object in prose, so anything around it is ignored.
func ParseReply(reply string) (StatusReport, error) {
	objText, ok := firstJSONObject(reply)
	if !ok {
		return StatusReport{}, fmt.Errorf("no JSON object found in reply")
	}

	var raw rawReport
	if err := json.Unmarshal([]byte(objText), &raw); err != nil {
		return StatusReport{}, fmt.Errorf("decoding reply object: %w", err)
	}

	// "question" must be present as a key even when null; the other three
	// must carry values.
	if raw.Status == nil || raw.NeedsInput == nil || raw.IsComplete == nil {
		return StatusReport{}, fmt.Errorf("reply object missing required keys")
	}

	report := StatusReport{
		Summary:    *raw.Status,
		NeedsInput: *raw.NeedsInput,
		IsComplete: *raw.IsComplete,
	}
	if raw.Question != nil {
		report.Question = *raw.Question
	}

	// Absent screenshots_match means static: single frames have no pair
	// to differ from, and older replies to the dual prompt omitted it.
	if raw.ScreenshotsMatch != nil {
		report.ScreenshotsMatch = *raw.ScreenshotsMatch
	} else {
		report.ScreenshotsMatch = true
	}

	return report, nil
}

// firstJSONObject returns the first balanced {...} substring of s,
// tracking string literals and escapes so braces inside values don't
// confuse the depth count.
func firstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
