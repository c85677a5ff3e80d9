package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyToolOutcome(t *testing.T) {
	cases := []struct {
		name string
		res  ToolResult
		want Outcome
	}{
		{"clean run", ToolResult{Response: "wrote 3 files"}, OutcomeSuccess},
		{"empty result", ToolResult{}, OutcomeSuccess},
		{"nonzero exit", ToolResult{ExitCode: 1}, OutcomeFailure},
		{"error field", ToolResult{Error: "tool crashed"}, OutcomeFailure},
		{"error marker", ToolResult{Response: "Error: no such file"}, OutcomeFailure},
		{"failed marker", ToolResult{Response: "2 tests FAILED"}, OutcomeFailure},
		{"python traceback", ToolResult{Response: "Traceback (most recent call last):\n ..."}, OutcomeFailure},
		{"blocked marker", ToolResult{Response: "operation blocked by policy"}, OutcomeFailure},
		{"markers are case-sensitive", ToolResult{Response: "no error occurred, all good"}, OutcomeSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyToolOutcome(tc.res))
		})
	}
}

func TestDetectNegativeFeedback(t *testing.T) {
	negatives := []string{
		"That's wrong, use the other endpoint",
		"no, that didn't work at all",
		"Why did you delete my config?",
		"STOP DOING that to the tests",
		"this is broken now",
	}
	for _, text := range negatives {
		assert.True(t, DetectNegativeFeedback(text), "expected negative: %q", text)
	}

	positives := []string{
		"great, now add the handler",
		"looks good, continue",
		"can you also update the docs?",
		"",
	}
	for _, text := range positives {
		assert.False(t, DetectNegativeFeedback(text), "expected non-negative: %q", text)
	}
}
