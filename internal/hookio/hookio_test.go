package hookio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/deltad/internal/feedback"
)

func TestReadEvent_SessionStart(t *testing.T) {
	payload := `{
		"hook_event_name": "session_start",
		"session_id": "sess-abc",
		"transcript_path": "/tmp/transcript.jsonl",
		"cwd": "/home/dev/project"
	}`

	e, err := ReadEvent(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, EventSessionStart, e.Kind)
	assert.Equal(t, "sess-abc", e.SessionID)
	assert.Equal(t, "/home/dev/project", e.WorkingDir)
}

func TestReadEvent_PostToolObjectResponse(t *testing.T) {
	payload := `{
		"hook_event_name": "post_tool_use",
		"session_id": "sess-abc",
		"tool_name": "Bash",
		"tool_input": {"command": "go test ./..."},
		"tool_response": {"output": "ok", "error": "", "exit_code": 0}
	}`

	e, err := ReadEvent(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, EventPostTool, e.Kind)
	assert.Equal(t, "Bash", e.ToolName)
	assert.Contains(t, e.ToolInput, "go test")
	assert.Equal(t, feedback.ToolResult{Response: "ok"}, e.ToolResult())
}

func TestReadEvent_PostToolStringResponse(t *testing.T) {
	payload := `{
		"hook_event_name": "post_tool_use",
		"tool_response": "Error: no such file",
		"exit_code": 1
	}`

	e, err := ReadEvent(strings.NewReader(payload))
	require.NoError(t, err)

	res := e.ToolResult()
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "Error: no such file", res.Response)
	assert.Equal(t, feedback.OutcomeFailure, feedback.ClassifyToolOutcome(res))
}

func TestReadEvent_MalformedJSON(t *testing.T) {
	_, err := ReadEvent(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestReadEvent_Oversized(t *testing.T) {
	big := `{"prompt": "` + strings.Repeat("a", MaxPayloadSize) + `"}`
	_, err := ReadEvent(strings.NewReader(big))
	assert.ErrorIs(t, err, ErrOversizedPayload)
}

func TestResolveSessionID_EnvFallback(t *testing.T) {
	t.Setenv("DELTAD_SESSION_ID", "env-sess")

	e := &Event{}
	assert.Equal(t, "env-sess", e.ResolveSessionID())

	e.SessionID = "payload-sess"
	assert.Equal(t, "payload-sess", e.ResolveSessionID())
}

func TestBranch_EnvOverride(t *testing.T) {
	t.Setenv("DELTAD_BRANCH", "feature/selector")
	assert.Equal(t, "feature/selector", Branch(t.TempDir()))
}

func TestBranch_NotARepo(t *testing.T) {
	t.Setenv("DELTAD_BRANCH", "")
	assert.Empty(t, Branch(t.TempDir()))
}
