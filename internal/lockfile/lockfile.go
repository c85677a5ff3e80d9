// Package lockfile serializes read-modify-write cycles on deltad's shared
// state files across independently spawned hook processes.
//
// Each hook invocation is a separate short-lived OS process with no shared
// memory, so mutual exclusion uses an advisory lock file created with
// O_CREATE|O_EXCL next to the protected target. Acquisition retries on a
// fixed interval for a bounded number of attempts; a lock whose holder has
// exceeded the stale threshold (crashed process, abrupt kill) is reclaimed
// so a dead holder can never deadlock the installation.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrTimeout is returned when the lock could not be acquired within the
// configured number of attempts. Callers skip their update rather than
// block the host event pipeline.
var ErrTimeout = errors.New("lock acquisition timed out")

// Default acquisition parameters. Hook processes finish in well under a
// second, so fifty 100ms attempts give any healthy holder ample time while
// keeping the worst case bounded at five seconds.
const (
	DefaultAttempts   = 50
	DefaultInterval   = 100 * time.Millisecond
	DefaultStaleAfter = 10 * time.Second
)

// lockBody is the JSON payload written into the lock file, recorded so a
// stale lock can be attributed when debugging.
type lockBody struct {
	PID        int       `json:"pid"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Guard provides mutual exclusion for one protected path.
type Guard struct {
	path       string
	attempts   int
	interval   time.Duration
	staleAfter time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithAttempts overrides the retry count.
func WithAttempts(n int) Option {
	return func(g *Guard) { g.attempts = n }
}

// WithInterval overrides the delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(g *Guard) { g.interval = d }
}

// WithStaleAfter overrides the age at which a held lock is reclaimed.
func WithStaleAfter(d time.Duration) Option {
	return func(g *Guard) { g.staleAfter = d }
}

// New creates a guard for target, placing the lock file at target + ".lock".
func New(target string, opts ...Option) *Guard {
	g := &Guard{
		path:       target + ".lock",
		attempts:   DefaultAttempts,
		interval:   DefaultInterval,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Path returns the lock file location.
func (g *Guard) Path() string {
	return g.path
}

// WithLock acquires the lock, runs fn, and releases the lock even when fn
// fails. The critical section is expected to perform the full load →
// mutate → save cycle on the protected file.
func (g *Guard) WithLock(fn func() error) error {
	owner, err := g.acquire()
	if err != nil {
		return err
	}
	defer g.release(owner)
	return fn()
}

// acquire attempts to exclusively create the lock file, reclaiming a stale
// one when its holder exceeded the max hold time.
func (g *Guard) acquire() (string, error) {
	owner := uuid.New().String()

	for attempt := 0; attempt < g.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(g.interval)
		}

		f, err := os.OpenFile(g.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			body, _ := json.Marshal(lockBody{
				PID:        os.Getpid(),
				Owner:      owner,
				AcquiredAt: time.Now(),
			})
			if _, werr := f.Write(body); werr != nil {
				f.Close()
				os.Remove(g.path)
				return "", fmt.Errorf("failed to write lock body: %w", werr)
			}
			f.Close()
			return owner, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create lock file: %w", err)
		}

		// Lock held by someone else. Reclaim only when provably stale.
		if g.isStale() {
			os.Remove(g.path)
		}
	}

	return "", ErrTimeout
}

// isStale reports whether the current lock file has been held longer than
// the stale threshold. The acquisition timestamp inside the file is
// authoritative; an unparseable body falls back to file mtime so a
// corrupted lock cannot pin the store forever.
func (g *Guard) isStale() bool {
	data, err := os.ReadFile(g.path)
	if err != nil {
		// Racing release, next attempt will retry creation.
		return false
	}

	var body lockBody
	if err := json.Unmarshal(data, &body); err == nil && !body.AcquiredAt.IsZero() {
		return time.Since(body.AcquiredAt) > g.staleAfter
	}

	info, err := os.Stat(g.path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > g.staleAfter
}

// release removes the lock file, but only if this guard still owns it. A
// holder that overran the stale threshold may have been reclaimed by a
// peer; removing blindly would release the peer's lock.
func (g *Guard) release(owner string) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return
	}
	var body lockBody
	if err := json.Unmarshal(data, &body); err != nil || body.Owner != owner {
		return
	}
	os.Remove(g.path)
}
