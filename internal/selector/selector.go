// Package selector ranks learned deltas against the current session
// context and renders the budgeted injection block surfaced to the host.
package selector

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/deltad/internal/delta"
)

// Matching is deliberately permissive: a false negative silently loses a
// learned pattern, a false positive only costs budget. The only hard
// exclusion is a file-pattern condition whose extension is nowhere in the
// context.
var filePatternRe = regexp.MustCompile(`\*\.([A-Za-z0-9_]+)`)

// Header precedes every non-empty injection block.
const Header = "## Learned patterns\n"

// DefaultCharsPerToken converts a token budget to a character ceiling. Four
// characters per token is conservative for English/Markdown text.
const DefaultCharsPerToken = 4

// Context describes the session state candidates are matched against.
type Context struct {
	// WorkingDir is the host process working directory.
	WorkingDir string

	// ToolName is the active tool or skill name, empty at session start.
	ToolName string

	// Branch is the current git branch, when known.
	Branch string

	// ProjectType is the environment-provided project classification
	// (e.g. "go", "typescript"), when the host supplies one.
	ProjectType string

	// Prompt is a free-text fragment of the triggering user message.
	Prompt string
}

// haystack returns the lowercase concatenation of all context signals.
func (c Context) haystack() string {
	return strings.ToLower(strings.Join([]string{
		c.WorkingDir, c.ToolName, c.Branch, c.ProjectType, c.Prompt,
	}, "\n"))
}

// Budget bounds the size of the injection block.
type Budget struct {
	// Tokens is the token allowance granted by the host.
	Tokens int

	// CharsPerToken converts Tokens to characters; zero means the default.
	CharsPerToken int
}

// MaxChars is the character ceiling applied during packing.
func (b Budget) MaxChars() int {
	cpt := b.CharsPerToken
	if cpt <= 0 {
		cpt = DefaultCharsPerToken
	}
	return b.Tokens * cpt
}

// Select filters deltas against ctx, ranks them, and greedily packs
// formatted entries under the budget.
//
// Returns the injection text and the ids embedded in it, in the same
// order. When nothing matches or nothing fits, both are empty: the host
// never receives a header-only block.
func Select(all []*delta.Delta, ctx Context, budget Budget) (string, []string) {
	candidates := make([]*delta.Delta, 0, len(all))
	for _, d := range all {
		if Matches(d.Condition, ctx) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}

	rank(candidates)

	maxChars := budget.MaxChars()
	var sb strings.Builder
	var ids []string

	for _, d := range candidates {
		entry := formatEntry(d)
		next := len(Header) + sb.Len() + len(entry)
		if next > maxChars {
			// Never truncate an entry mid-text; the first overflow ends
			// packing so ordering stays confidence-descending.
			break
		}
		sb.WriteString(entry)
		ids = append(ids, d.ID)
	}

	if len(ids) == 0 {
		return "", nil
	}
	return Header + sb.String(), ids
}

// Matches reports whether a condition is relevant to the context.
//
// Conditions carrying a *.ext file pattern are excluded when no context
// signal mentions that extension; every other condition is included —
// ambiguity resolves toward inclusion.
func Matches(condition string, ctx Context) bool {
	patterns := filePatternRe.FindAllStringSubmatch(condition, -1)
	if len(patterns) == 0 {
		return true
	}

	hay := ctx.haystack()
	for _, m := range patterns {
		if strings.Contains(hay, "."+strings.ToLower(m[1])) {
			return true
		}
	}
	return false
}

// rank orders candidates by confidence descending, breaking ties by more
// recent positive reinforcement, then higher total feedback volume, then
// id for determinism.
func rank(candidates []*delta.Delta) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		at, bt := a.LastHelpful, b.LastHelpful
		switch {
		case at != nil && bt == nil:
			return true
		case at == nil && bt != nil:
			return false
		case at != nil && bt != nil && !at.Equal(*bt):
			return at.After(*bt)
		}
		if a.TotalFeedback() != b.TotalFeedback() {
			return a.TotalFeedback() > b.TotalFeedback()
		}
		return a.ID < b.ID
	})
}

// formatEntry renders one delta as a Markdown bullet. The delta id is
// embedded so downstream feedback can attribute the entry.
func formatEntry(d *delta.Delta) string {
	return fmt.Sprintf("- %s (confidence %d%%, delta %s)\n",
		strings.TrimSpace(d.Condition), int(math.Round(d.Confidence*100)), d.ID)
}
