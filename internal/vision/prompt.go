package vision

import (
	"fmt"
	"strings"
)

// Vocabulary holds the deterministic phrase lists shared between the
// prompt text and the override rules, so the model is told about the
// same cues the rules enforce afterwards.
type Vocabulary struct {
	StatusWords        []string // transient in-progress status words
	RunningIndicators  []string // phrases shown while a process runs
	EscInterruptMarker string   // e.g. "(esc to interrupt)"
	ModelSwitchPhrases []string // phrases that end a session's work
}

// promptHeader is the JSON contract both prompt variants share.
const promptHeader = `Analyze the terminal screenshot(s) and respond with a single JSON object containing:

1. "status": Brief description of what's happening (e.g., "Installing npm packages", "File edit confirmation", "Ready for input")
2. "needs_input": true if waiting for user input/response, false otherwise
3. "is_complete": true if process appears finished (showing prompt/ready for commands), false if actively running/processing
4. "question": if needs_input is true, what question/prompt is being asked`

// attentionBlock lists the input cues the model must never miss.
const attentionBlock = `IMPORTANT: Pay special attention to:
- Numbered options (1., 2., 3.) - these always need input
- File edit confirmation prompts with diff views
- "Do you want to..." questions
- Selection menus with highlighted options (❯)
- Permission/confirmation dialogs
- Any prompt asking user to choose between options

Keep status under 50 characters. Set needs_input=true if you see any selection prompt or question.`

// SinglePrompt builds the prompt for a one-frame classification.
func SinglePrompt(v Vocabulary) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nCRITICAL COMPLETION DETECTION RULES:\n")
	fmt.Fprintf(&b, "- Process is NOT complete if you see %q - this means it's still actively running\n", v.EscInterruptMarker)
	b.WriteString("- Process is NOT complete if you see any loading indicators, progress bars, or \"processing...\" messages\n")
	fmt.Fprintf(&b, "- Process is NOT complete if you see any of these status messages: %s\n", strings.Join(v.StatusWords, ", "))
	fmt.Fprintf(&b, "- Process is NOT complete if you see any of these running indicators: %s\n", strings.Join(v.RunningIndicators, ", "))
	b.WriteString("- Process is NOT complete if you see reddish/orange colored text - this indicates active processes\n")
	b.WriteString("- Process is ONLY complete when you see a clean prompt (>) with no active processing indicators\n")
	fmt.Fprintf(&b, "- Process IS complete when you see model switching messages like: %s\n", strings.Join(v.ModelSwitchPhrases, ", "))
	b.WriteString("\n")
	b.WriteString(attentionBlock)
	b.WriteString("\n\nExamples:\n")
	b.WriteString(`{"status": "Installing dependencies", "needs_input": false, "is_complete": false, "question": null}` + "\n")
	b.WriteString(`{"status": "File edit confirmation", "needs_input": true, "is_complete": false, "question": "Do you want to make this edit to hello.py?"}` + "\n")
	b.WriteString(`{"status": "Ready for input", "needs_input": false, "is_complete": true, "question": null}`)
	return b.String()
}

// DualPrompt builds the prompt for a two-frame classification. The model
// additionally reports "screenshots_match" and must treat differing
// frames as an active process.
func DualPrompt(v Vocabulary, frameGapMS int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These two terminal screenshots were taken %dms apart.\n\n", frameGapMS)
	b.WriteString(promptHeader)
	b.WriteString("\n5. \"screenshots_match\": true if the two screenshots are identical/very similar, false if they show changes\n")
	b.WriteString(`
DUAL SCREENSHOT ANALYSIS RULES:
- If screenshots are IDENTICAL (screenshots_match: true):
  * This indicates a STATIC state (either completed or waiting for input)
  * Check if it's a clean prompt (>) - if so, likely COMPLETE
  * Check if it's a question/selection - if so, needs_input: true
- If screenshots are DIFFERENT (screenshots_match: false):
  * This indicates an ACTIVE process (animations, progress, etc.)
  * is_complete: false, needs_input: false
`)
	b.WriteString("\nCRITICAL COMPLETION DETECTION RULES:\n")
	b.WriteString("- Process is NOT complete if screenshots are different (screenshots_match: false)\n")
	fmt.Fprintf(&b, "- Process is NOT complete if you see %q - this means it's still actively running\n", v.EscInterruptMarker)
	fmt.Fprintf(&b, "- Process is NOT complete if you see any of these status messages: %s\n", strings.Join(v.StatusWords, ", "))
	fmt.Fprintf(&b, "- Process is NOT complete if you see any of these running indicators: %s\n", strings.Join(v.RunningIndicators, ", "))
	b.WriteString("- Process is NOT complete if you see reddish/orange colored text - this indicates active processes\n")
	b.WriteString("- Process is ONLY complete when screenshots are identical AND you see a clean prompt (>) with no active processing indicators\n")
	b.WriteString("\n")
	b.WriteString(attentionBlock)
	b.WriteString("\n\nExamples:\n")
	b.WriteString(`{"status": "Installing dependencies", "needs_input": false, "is_complete": false, "question": null, "screenshots_match": false}` + "\n")
	b.WriteString(`{"status": "Choose framework option", "needs_input": true, "is_complete": false, "question": "React or Vue? (R/V)", "screenshots_match": true}` + "\n")
	b.WriteString(`{"status": "Ready for input", "needs_input": false, "is_complete": true, "question": null, "screenshots_match": true}`)
	return b.String()
}
