// Package session tracks which delta ids were surfaced to which host
// session, so later feedback events can be attributed to the records the
// session actually saw.
//
// The tracker is a single JSON document holding an insertion-ordered list
// of injection records. Retention is bounded in both dimensions: the id
// list per session is capped, and once the tracked-session count exceeds
// its cap the oldest sessions are evicted FIFO. Feedback for an evicted
// session becomes a no-op, which is an accepted loss.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deltad/internal/lockfile"
	"github.com/fyrsmithlabs/deltad/internal/store"
)

// ErrSessionNotFound is returned when a session was never tracked or has
// been evicted.
var ErrSessionNotFound = errors.New("session not found")

// Default retention caps.
const (
	DefaultMaxSessions      = 50
	DefaultMaxIDsPerSession = 10
)

// Injection pairs a session with the ordered delta ids shown to it.
type Injection struct {
	SessionID  string    `json:"session_id"`
	DeltaIDs   []string  `json:"delta_ids"`
	InjectedAt time.Time `json:"injected_at"`
}

// Tracker persists the session → surfaced-ids map.
type Tracker struct {
	path        string
	guard       *lockfile.Guard
	logger      *zap.Logger
	maxSessions int
	maxIDs      int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxSessions overrides the tracked-session cap.
func WithMaxSessions(n int) Option {
	return func(t *Tracker) { t.maxSessions = n }
}

// WithMaxIDsPerSession overrides the per-session id cap.
func WithMaxIDsPerSession(n int) Option {
	return func(t *Tracker) { t.maxIDs = n }
}

// New creates a tracker for the JSON document at path.
func New(path string, guard *lockfile.Guard, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		path:        path,
		guard:       guard,
		logger:      logger,
		maxSessions: DefaultMaxSessions,
		maxIDs:      DefaultMaxIDsPerSession,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordInjection stores the ids surfaced to sessionID, replacing any
// previous entry for the same session. Ids beyond the per-session cap are
// dropped from the tail; sessions beyond the session cap are evicted
// oldest-first.
func (t *Tracker) RecordInjection(sessionID string, ids []string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}

	return t.guard.WithLock(func() error {
		if err := os.MkdirAll(filepath.Dir(t.path), 0700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}

		all := t.load()

		// Re-injection for a known session replaces its entry and moves it
		// to the back of the eviction order.
		kept := all[:0]
		for _, inj := range all {
			if inj.SessionID != sessionID {
				kept = append(kept, inj)
			}
		}

		if len(ids) > t.maxIDs {
			ids = ids[:t.maxIDs]
		}
		kept = append(kept, Injection{
			SessionID:  sessionID,
			DeltaIDs:   append([]string(nil), ids...),
			InjectedAt: time.Now(),
		})

		if excess := len(kept) - t.maxSessions; excess > 0 {
			kept = kept[excess:]
		}

		return t.save(kept)
	})
}

// LookupInjection returns the delta ids surfaced to sessionID, or
// ErrSessionNotFound once the session was evicted or never recorded.
func (t *Tracker) LookupInjection(sessionID string) ([]string, error) {
	for _, inj := range t.load() {
		if inj.SessionID == sessionID {
			return inj.DeltaIDs, nil
		}
	}
	return nil, ErrSessionNotFound
}

// load reads the tracking document fail-open, matching the delta store's
// policy: corrupt or missing tracking data degrades to "no sessions".
func (t *Tracker) load() []Injection {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("session tracker unreadable, treating as empty",
				zap.String("path", t.path), zap.Error(err))
		}
		return nil
	}

	var all []Injection
	if err := json.Unmarshal(data, &all); err != nil {
		t.logger.Warn("session tracker corrupt, treating as empty",
			zap.String("path", t.path), zap.Error(err))
		return nil
	}
	return all
}

func (t *Tracker) save(all []Injection) error {
	if all == nil {
		all = []Injection{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session tracker: %w", err)
	}
	if err := store.WriteFileAtomic(t.path, data); err != nil {
		return fmt.Errorf("failed to write session tracker: %w", err)
	}
	return nil
}
