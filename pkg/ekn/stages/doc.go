// Package stages implements the nine stage jobs the Runner dispatches
// (spec.md §4.2, §4.3, §4.4, §4.5, §4.6): each type here satisfies
// runner.Job by wiring the already-built domain packages (rights, embedding,
// graph, maturity) and the three black-box services (pkg/ekn/services)
// behind the per-item input-state predicate and acceptance-gate contract the
// Runner expects. No stage job talks to the relational store directly
// through *store.Repository; each declares the narrow slice of it actually
// needed, so a test can supply a fake without pulling in database/sql.
package stages
