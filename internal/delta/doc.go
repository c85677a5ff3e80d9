// Package delta defines the learned-heuristic record shared by all deltad
// hook invocations and the confidence function derived from its feedback
// counters.
//
// A Delta pairs a free-text trigger condition with weighted feedback
// counts. Confidence is the Beta-style ratio of weighted successes to all
// weighted feedback, with human-sourced positive signals counting three
// times as strongly as automated ones. See Recalculate for the exact form.
package delta
