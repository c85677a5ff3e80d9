// Package hooks implements the per-event handlers invoked by the host:
// injection on session start and before tool use, feedback classification
// and confidence updates after tool use and on user messages.
package hooks

import (
	"errors"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deltad/internal/audit"
	"github.com/fyrsmithlabs/deltad/internal/config"
	"github.com/fyrsmithlabs/deltad/internal/delta"
	"github.com/fyrsmithlabs/deltad/internal/feedback"
	"github.com/fyrsmithlabs/deltad/internal/hookio"
	"github.com/fyrsmithlabs/deltad/internal/lockfile"
	"github.com/fyrsmithlabs/deltad/internal/selector"
	"github.com/fyrsmithlabs/deltad/internal/session"
	"github.com/fyrsmithlabs/deltad/internal/store"
)

// Handler wires the store, tracker, selector and classifier for one hook
// invocation. Each process builds exactly one Handler, runs one event
// through it and exits.
type Handler struct {
	cfg     *config.Config
	logger  *zap.Logger
	deltas  *store.Store
	tracker *session.Tracker
	audit   *audit.Log
}

// NewHandler builds a handler from config, pointing both state files at
// the configured directory with their own guards.
func NewHandler(cfg *config.Config, logger *zap.Logger) *Handler {
	lockOpts := []lockfile.Option{
		lockfile.WithAttempts(cfg.Lock.Attempts),
		lockfile.WithInterval(cfg.Lock.Interval.Duration()),
		lockfile.WithStaleAfter(cfg.Lock.StaleAfter.Duration()),
	}

	deltasPath := cfg.State.DeltasPath()
	sessionsPath := cfg.State.SessionsPath()

	return &Handler{
		cfg:    cfg,
		logger: logger,
		deltas: store.New(deltasPath, lockfile.New(deltasPath, lockOpts...), logger),
		tracker: session.New(sessionsPath, lockfile.New(sessionsPath, lockOpts...), logger,
			session.WithMaxSessions(cfg.Session.MaxSessions),
			session.WithMaxIDsPerSession(cfg.Session.MaxIDsPerSession)),
		audit: audit.New(cfg.State.AuditPath(), logger),
	}
}

// Inject handles session-start and tool-use-before events: it ranks the
// stored deltas against the event context, records which ids were
// surfaced, and returns the budgeted block for stdout. An empty string
// means nothing relevant fit the budget and nothing was tracked.
func (h *Handler) Inject(e *hookio.Event) (string, error) {
	sessionID := e.ResolveSessionID()
	if sessionID == "" {
		h.logger.Debug("no session id, skipping injection")
		return "", nil
	}

	ctx := selector.Context{
		WorkingDir:  e.WorkingDir,
		ToolName:    e.ToolName,
		Branch:      hookio.Branch(e.WorkingDir),
		ProjectType: os.Getenv("DELTAD_PROJECT_TYPE"),
		Prompt:      e.Prompt,
	}
	budget := selector.Budget{
		Tokens:        h.cfg.Selector.TokenBudget,
		CharsPerToken: h.cfg.Selector.CharsPerToken,
	}

	text, ids := selector.Select(h.deltas.Load(), ctx, budget)
	if len(ids) == 0 {
		return "", nil
	}

	if err := h.tracker.RecordInjection(sessionID, ids); err != nil {
		// Untracked injections cannot receive feedback; better to
		// surface nothing than to surface unattributable patterns.
		return "", err
	}

	h.audit.Event("injection", sessionID, ids)
	h.logger.Info("injected deltas",
		zap.String("session.id", sessionID), zap.Int("count", len(ids)))
	return text, nil
}

// ToolOutcome handles tool-use-after events: the result is classified and
// every delta surfaced to this session is reinforced or penalized.
//
// A successful skill invocation is the positive human-feedback path: the
// user deliberately ran a learned skill and it worked, so the update lands
// on the human counter. All other outcomes move the automated counters.
func (h *Handler) ToolOutcome(e *hookio.Event) error {
	outcome := feedback.ClassifyToolOutcome(e.ToolResult())
	human := outcome == feedback.OutcomeSuccess && isSkillTool(e.ToolName)
	return h.applyFeedback(e.ResolveSessionID(), outcome, human, "tool:"+e.ToolName)
}

// UserMessage handles free-text user events. Only negative sentiment is
// actionable from text alone; anything else is a no-op.
func (h *Handler) UserMessage(e *hookio.Event) error {
	if !feedback.DetectNegativeFeedback(e.Prompt) {
		return nil
	}
	return h.applyFeedback(e.ResolveSessionID(), feedback.OutcomeFailure, false, "user-message")
}

// applyFeedback looks up the deltas surfaced to the session and updates
// their counters under the store guard. An expired or unknown session is
// an accepted loss, not an error.
func (h *Handler) applyFeedback(sessionID string, outcome feedback.Outcome, human bool, source string) error {
	if sessionID == "" {
		return nil
	}

	ids, err := h.tracker.LookupInjection(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			h.logger.Debug("session expired or untracked, dropping feedback",
				zap.String("session.id", sessionID))
			return nil
		}
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	surfaced := make(map[string]bool, len(ids))
	for _, id := range ids {
		surfaced[id] = true
	}

	err = h.deltas.Update(func(all []*delta.Delta) []*delta.Delta {
		now := time.Now()
		for _, d := range all {
			if !surfaced[d.ID] {
				continue
			}
			switch {
			case outcome == feedback.OutcomeFailure:
				d.MarkNotHelpful()
			case human:
				d.MarkHumanHelpful(now)
			default:
				d.MarkHelpful(now)
			}
		}
		return all
	})
	if err != nil {
		if errors.Is(err, lockfile.ErrTimeout) {
			h.logger.Warn("store locked, skipping feedback update",
				zap.String("session.id", sessionID), zap.String("source", source))
			return nil
		}
		return err
	}

	h.audit.Event("feedback-"+string(outcome), sessionID, ids)
	h.logger.Info("applied feedback",
		zap.String("session.id", sessionID),
		zap.String("outcome", string(outcome)),
		zap.Bool("human", human),
		zap.Int("count", len(ids)))
	return nil
}

// isSkillTool reports whether a tool name denotes a skill invocation.
func isSkillTool(name string) bool {
	return strings.Contains(strings.ToLower(name), "skill")
}
