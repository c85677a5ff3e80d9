// Package hookio is the boundary with the host's event delivery: it
// decodes the loosely-typed JSON payload delivered on stdin once per hook
// invocation and resolves ambient context from the process environment.
//
// Host payloads are parsed tolerantly with gjson rather than strict
// structs: field shapes vary between host versions (tool_response may be a
// string or an object) and a missing field is never an error here —
// whether the event is actionable is the entry point's call.
package hookio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/deltad/internal/feedback"
)

// MaxPayloadSize bounds the stdin payload. Anything larger is treated as
// "nothing to do" by callers.
const MaxPayloadSize = 1 << 20 // 1 MiB

// ErrOversizedPayload is returned when stdin exceeds MaxPayloadSize.
var ErrOversizedPayload = errors.New("event payload exceeds size limit")

// EventKind names the host trigger that started this invocation.
type EventKind string

const (
	EventSessionStart EventKind = "session_start"
	EventPreTool      EventKind = "pre_tool_use"
	EventPostTool     EventKind = "post_tool_use"
	EventUserMessage  EventKind = "user_message"
)

// Event is the normalized view of one host payload.
type Event struct {
	Kind           EventKind
	SessionID      string
	TranscriptPath string
	WorkingDir     string
	ToolName       string
	ToolInput      string
	ToolExitCode   int
	ToolError      string
	ToolResponse   string
	Prompt         string
}

// ReadEvent decodes one event payload from r.
//
// Malformed JSON yields an error the entry points map to a clean no-op
// exit; unknown fields are simply ignored.
func ReadEvent(r io.Reader) (*Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return nil, ErrOversizedPayload
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("event payload is not valid JSON")
	}

	doc := gjson.ParseBytes(data)
	e := &Event{
		Kind:           EventKind(doc.Get("hook_event_name").String()),
		SessionID:      doc.Get("session_id").String(),
		TranscriptPath: doc.Get("transcript_path").String(),
		WorkingDir:     doc.Get("cwd").String(),
		ToolName:       doc.Get("tool_name").String(),
		ToolInput:      doc.Get("tool_input").Raw,
		Prompt:         doc.Get("prompt").String(),
	}

	// tool_response is a string in older hosts, an object in newer ones.
	resp := doc.Get("tool_response")
	if resp.IsObject() {
		e.ToolResponse = resp.Get("output").String()
		e.ToolError = resp.Get("error").String()
		e.ToolExitCode = int(resp.Get("exit_code").Int())
	} else {
		e.ToolResponse = resp.String()
		e.ToolExitCode = int(doc.Get("exit_code").Int())
	}

	return e, nil
}

// ToolResult projects the event's outcome fields for the classifier.
func (e *Event) ToolResult() feedback.ToolResult {
	return feedback.ToolResult{
		ExitCode: e.ToolExitCode,
		Error:    e.ToolError,
		Response: e.ToolResponse,
	}
}

// ResolveSessionID resolves the session identifier, preferring the payload and
// falling back to the environment.
func (e *Event) ResolveSessionID() string {
	if e.SessionID != "" {
		return e.SessionID
	}
	return os.Getenv("DELTAD_SESSION_ID")
}

// Branch resolves the current git branch for dir. An explicit
// DELTAD_BRANCH wins; otherwise the repository containing dir is opened
// and HEAD's short name returned. Empty when dir is not inside a work
// tree — branch is an optional context signal, never an error.
func Branch(dir string) string {
	if b := os.Getenv("DELTAD_BRANCH"); b != "" {
		return b
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	if !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
