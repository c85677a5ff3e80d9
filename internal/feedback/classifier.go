// Package feedback maps observed outcomes onto the success/failure signals
// that drive delta confidence updates.
//
// Two sources feed the classifier: automated tool results (exit codes,
// error fields, failure markers in response text) and free-text human
// utterances scanned for a fixed negative-sentiment vocabulary. There is
// deliberately no positive detector for free text; positive human
// reinforcement is attributed only through the skill-success path, where a
// skill invocation also passes the automated check.
package feedback

import "strings"

// Outcome is the classified result of a tool invocation.
type Outcome string

const (
	// OutcomeSuccess indicates the tool completed without failure signals.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure indicates a non-zero exit, an error field, or a known
	// failure marker in the response.
	OutcomeFailure Outcome = "failure"
)

// ToolResult is the subset of a host tool-use-after payload the classifier
// inspects.
type ToolResult struct {
	// ExitCode is the tool's process exit status, when it ran a process.
	ExitCode int

	// Error carries the host's error field verbatim, empty on success.
	Error string

	// Response is the textual tool output.
	Response string
}

// failureMarkers are case-sensitive substrings that mark a textual
// response as failed even when the host reported no error field. Markers
// stay case-sensitive so prose like "no error occurred" does not trip them.
var failureMarkers = []string{
	"Error:",
	"ERROR:",
	"FAILED",
	"Traceback (most recent call last)",
	"command not found",
	"Permission denied",
	"blocked",
}

// ClassifyToolOutcome classifies an automated tool result. Absence of all
// failure signals is success.
func ClassifyToolOutcome(res ToolResult) Outcome {
	if res.ExitCode != 0 {
		return OutcomeFailure
	}
	if res.Error != "" {
		return OutcomeFailure
	}
	for _, marker := range failureMarkers {
		if strings.Contains(res.Response, marker) {
			return OutcomeFailure
		}
	}
	return OutcomeSuccess
}

// negativePhrases is the fixed vocabulary of corrective or frustrated
// phrasing that signals the surfaced deltas were unhelpful. Matched
// case-insensitively against the whole utterance.
var negativePhrases = []string{
	"that's wrong",
	"that is wrong",
	"that's not right",
	"not what i asked",
	"not what i wanted",
	"don't do that",
	"do not do that",
	"stop doing",
	"you broke",
	"this is broken",
	"that didn't work",
	"that did not work",
	"doesn't work",
	"does not work",
	"undo that",
	"revert that",
	"why did you",
	"i told you",
	"wrong again",
	"useless",
	"terrible",
}

// DetectNegativeFeedback reports whether a free-text user message carries
// negative sentiment toward the current session's surfaced deltas.
func DetectNegativeFeedback(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
