package vision

import "strings"

// Validate applies the deterministic override rules to a classifier
// report and returns the corrected report. Rules, in priority order:
//
//  1. A model-switch / limit-reached phrase anywhere in the summary or
//     question forces is_complete=true. This is the strongest signal and
//     overrides everything else.
//  2. Otherwise, if the model said complete but the text still shows the
//     interrupt marker, a known in-progress status word, or a running
//     phrase, the verdict flips back to not-complete.
//
// The function is pure; the input report is not modified.
func Validate(report StatusReport, v Vocabulary) StatusReport {
	text := strings.ToLower(report.Summary + " " + report.Question)

	for _, phrase := range v.ModelSwitchPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			report.IsComplete = true
			report.Summary = "Task completed (model switch detected)"
			return report
		}
	}

	if !report.IsComplete {
		return report
	}

	if v.EscInterruptMarker != "" && strings.Contains(text, strings.ToLower(v.EscInterruptMarker)) {
		report.IsComplete = false
		report.Summary = "Still processing"
		return report
	}
	for _, word := range v.StatusWords {
		if strings.Contains(text, strings.ToLower(word)) {
			report.IsComplete = false
			report.Summary = "Still processing"
			return report
		}
	}
	for _, phrase := range v.RunningIndicators {
		if strings.Contains(text, strings.ToLower(phrase)) {
			report.IsComplete = false
			report.Summary = "Still processing"
			return report
		}
	}

	return report
}
