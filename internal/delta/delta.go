package delta

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for delta operations.
var (
	ErrEmptyID        = errors.New("delta ID cannot be empty")
	ErrEmptyCondition = errors.New("delta condition cannot be empty")
	ErrNotFound       = errors.New("delta not found")
)

// HumanFeedbackWeight is the multiplier applied to human-sourced positive
// feedback when computing confidence. Human signals are rarer and far more
// deliberate than automated tool outcomes, so each one counts as three
// automated successes. Negative feedback is never multiplied.
const HumanFeedbackWeight = 3.0

// NeutralConfidence is the prior assigned to a delta with no feedback yet.
const NeutralConfidence = 0.5

// Delta is a single learned heuristic shared across sessions.
//
// Deltas are created by the learning workflow and thereafter mutated only
// through the feedback path: automated tool outcomes move HelpfulCount /
// NotHelpfulCount, weighted human signals move HumanFeedbackCount. The
// Confidence field is derived from the counters and recomputed on every
// mutation so the persisted value is never stale.
type Delta struct {
	// ID is the unique delta identifier (UUID). Assigned at creation,
	// immutable, never reused.
	ID string `json:"id"`

	// Condition is a free-text trigger description, e.g. "when using the
	// commit skill" or "for files matching *.ts". Matched by substring and
	// keyword against the session context, never by equality.
	Condition string `json:"condition"`

	// HelpfulCount counts automated positive outcomes.
	HelpfulCount int `json:"helpful_count"`

	// NotHelpfulCount counts negative outcomes from any source.
	NotHelpfulCount int `json:"not_helpful_count"`

	// HumanFeedbackCount counts human-originated positive signals. Kept
	// separate from HelpfulCount so the two accounting paths never merge.
	HumanFeedbackCount int `json:"human_feedback_count"`

	// LastHelpful is the time of the most recent positive reinforcement.
	// Nil until the first success.
	LastHelpful *time.Time `json:"last_helpful,omitempty"`

	// Confidence is the derived reliability score in [0, 1].
	Confidence float64 `json:"confidence"`

	// CreatedAt is when the delta was learned.
	CreatedAt time.Time `json:"created_at"`
}

// New creates a delta for the given condition with a generated UUID and
// the neutral prior confidence.
func New(condition string) (*Delta, error) {
	if condition == "" {
		return nil, ErrEmptyCondition
	}
	return &Delta{
		ID:         uuid.New().String(),
		Condition:  condition,
		Confidence: NeutralConfidence,
		CreatedAt:  time.Now(),
	}, nil
}

// Recalculate recomputes Confidence from the current counters.
//
// Weighted successes S = HelpfulCount + 3*HumanFeedbackCount, weighted
// failures F = NotHelpfulCount, confidence = S / (S + F). With no feedback
// at all the delta keeps the neutral 0.5 prior. The function is monotonic:
// adding a success never lowers the score, adding a failure never raises it.
func (d *Delta) Recalculate() {
	s := float64(d.HelpfulCount) + HumanFeedbackWeight*float64(d.HumanFeedbackCount)
	f := float64(d.NotHelpfulCount)
	if s+f == 0 {
		d.Confidence = NeutralConfidence
		return
	}
	d.Confidence = s / (s + f)
}

// MarkHelpful records one automated positive outcome.
func (d *Delta) MarkHelpful(now time.Time) {
	d.HelpfulCount++
	d.LastHelpful = &now
	d.Recalculate()
}

// MarkNotHelpful records one negative outcome. Negative signals count at
// unit weight regardless of source.
func (d *Delta) MarkNotHelpful() {
	d.NotHelpfulCount++
	d.Recalculate()
}

// MarkHumanHelpful records one human-originated positive signal.
func (d *Delta) MarkHumanHelpful(now time.Time) {
	d.HumanFeedbackCount++
	d.LastHelpful = &now
	d.Recalculate()
}

// Reset zeroes all counters, clears LastHelpful and returns the delta to
// the neutral prior. The only path by which counters ever decrease.
func (d *Delta) Reset() {
	d.HelpfulCount = 0
	d.NotHelpfulCount = 0
	d.HumanFeedbackCount = 0
	d.LastHelpful = nil
	d.Recalculate()
}

// TotalFeedback is the raw (unweighted) feedback volume, used as the final
// ranking tie-breaker.
func (d *Delta) TotalFeedback() int {
	return d.HelpfulCount + d.NotHelpfulCount + d.HumanFeedbackCount
}

// Normalize coerces a delta loaded from disk into a valid state: negative
// counters are clamped to zero and Confidence is recomputed so a hand-edited
// or stale file cannot leak an inconsistent score. Returns ErrEmptyID when
// the record has no identifier and should be quarantined by the caller.
func (d *Delta) Normalize() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.HelpfulCount < 0 {
		d.HelpfulCount = 0
	}
	if d.NotHelpfulCount < 0 {
		d.NotHelpfulCount = 0
	}
	if d.HumanFeedbackCount < 0 {
		d.HumanFeedbackCount = 0
	}
	d.Recalculate()
	return nil
}
