// Package store persists the shared delta collection as a single JSON
// document and provides the guarded read-modify-write cycle every mutation
// goes through.
//
// The store is the source of truth for the whole installation. Writers
// always produce a complete snapshot: content is written to a temp file in
// the same directory, fsynced, then renamed over the target, so a reader
// opening the file mid-write sees either the fully-old or fully-new
// content. Loads are fail-open: a missing, unreadable or corrupt file
// yields an empty collection, because every caller is a non-blocking
// advisory hook and must never surface a failure to the host.
package store

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deltad/internal/delta"
	"github.com/fyrsmithlabs/deltad/internal/lockfile"
)

// Store reads and writes the delta collection at a fixed path.
type Store struct {
	path   string
	guard  *lockfile.Guard
	logger *zap.Logger
}

// New creates a store for the JSON document at path. The guard must be
// dedicated to this path; Update is the only entry point that saves.
func New(path string, guard *lockfile.Guard, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		guard:  guard,
		logger: logger,
	}
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full collection.
//
// Fail-open: a missing file, read error or parse failure returns an empty
// slice with a log line, never an error. A corrupt file is left in place
// untouched for manual inspection. Records that fail normalization are
// quarantined (dropped with a warning) rather than propagated.
func (s *Store) Load() []*delta.Delta {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("delta store unreadable, treating as empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}

	var all []*delta.Delta
	if err := json.Unmarshal(data, &all); err != nil {
		s.logger.Warn("delta store corrupt, treating as empty",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}

	valid := all[:0]
	for _, d := range all {
		if err := d.Normalize(); err != nil {
			s.logger.Warn("quarantining invalid delta record",
				zap.String("condition", d.Condition), zap.Error(err))
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

// Update runs the full load → mutate → save cycle under the guard. The
// mutator receives the freshly loaded collection and returns the
// collection to persist. On lock timeout the update is skipped and
// lockfile.ErrTimeout is returned; the caller logs and moves on.
func (s *Store) Update(fn func(all []*delta.Delta) []*delta.Delta) error {
	return s.guard.WithLock(func() error {
		if err := s.ensureDir(); err != nil {
			return err
		}
		return s.save(fn(s.Load()))
	})
}

// save writes the collection atomically. Unexported: all mutations must
// flow through Update so they hold the lock.
func (s *Store) save(all []*delta.Delta) error {
	if all == nil {
		all = []*delta.Delta{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode delta store: %w", err)
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write delta store: %w", err)
	}
	return nil
}

// ensureDir creates the state directory on first use. An existing store
// file is never touched here.
func (s *Store) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return nil
}

// WriteFileAtomic writes data to path via a randomly suffixed temp file in
// the same directory followed by an atomic rename. Used by every deltad
// state file so readers never observe a truncated or interleaved write.
func WriteFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp." + randomSuffix()
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

// randomSuffix generates a random suffix for temp files so concurrent
// writers in the same directory never collide on O_EXCL.
func randomSuffix() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
