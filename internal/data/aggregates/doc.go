// Package aggregates implements the write-side aggregate contracts of
// internal/domain/aggregates.
//
// Each aggregate composes table repos from internal/data/repos and owns the
// transaction boundary of its writes: the edition lifecycle (publish, summary
// edits, draft deletion) and the per-project fact logs.
package aggregates
