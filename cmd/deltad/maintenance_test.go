package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/deltad/internal/delta"
	"github.com/fyrsmithlabs/deltad/internal/lockfile"
	"github.com/fyrsmithlabs/deltad/internal/logging"
	"github.com/fyrsmithlabs/deltad/internal/store"
)

func seedStateDir(t *testing.T) *delta.Delta {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DELTAD_STATE_DIR", dir)

	d, err := delta.New("prefer small focused commits")
	require.NoError(t, err)
	d.MarkHelpful(time.Now())

	path := filepath.Join(dir, "deltas.json")
	s := store.New(path, lockfile.New(path), logging.NewNop())
	require.NoError(t, s.Update(func(all []*delta.Delta) []*delta.Delta {
		return append(all, d)
	}))
	return d
}

func captureCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRunList(t *testing.T) {
	d := seedStateDir(t)
	cmd, buf := captureCmd()

	require.NoError(t, runList(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, d.ID)
	assert.Contains(t, out, "prefer small focused commits")
	assert.Contains(t, out, "1.00")
}

func TestRunList_EmptyStore(t *testing.T) {
	t.Setenv("DELTAD_STATE_DIR", t.TempDir())
	cmd, buf := captureCmd()

	require.NoError(t, runList(cmd, nil))
	assert.Contains(t, buf.String(), "no deltas learned yet")
}

func TestRunReset(t *testing.T) {
	d := seedStateDir(t)
	cmd, buf := captureCmd()

	require.NoError(t, runReset(cmd, []string{d.ID}))
	assert.Contains(t, buf.String(), "reset to neutral confidence")

	s, err := openStore()
	require.NoError(t, err)
	loaded := s.Load()
	require.Len(t, loaded, 1)
	assert.Zero(t, loaded[0].HelpfulCount)
	assert.InDelta(t, delta.NeutralConfidence, loaded[0].Confidence, 0.001)
	assert.Nil(t, loaded[0].LastHelpful)
}

func TestRunReset_UnknownID(t *testing.T) {
	seedStateDir(t)
	cmd, _ := captureCmd()

	err := runReset(cmd, []string{"no-such-delta"})
	assert.ErrorIs(t, err, delta.ErrNotFound)
}
