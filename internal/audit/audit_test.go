package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/deltad/internal/logging"
)

func TestEvent_AppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := New(path, logging.NewNop())

	l.Event("injection", "sess-1", []string{"d1", "d2"})
	l.Event("feedback-success", "sess-1", []string{"d1"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "injection session=sess-1 deltas=d1,d2")
	assert.Contains(t, lines[1], "feedback-success session=sess-1 deltas=d1")
	// Each line starts with an RFC3339 timestamp.
	for _, line := range lines {
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, line)
	}
}

func TestEvent_FailOpenOnUnwritablePath(t *testing.T) {
	// Path whose parent is a file, so MkdirAll fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	l := New(filepath.Join(blocker, "audit.log"), logging.NewNop())
	assert.NotPanics(t, func() {
		l.Event("injection", "sess-1", nil)
	})
}
