package runner

import (
	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// Kind is the spec's error-kind taxonomy (spec.md §4.1 "Error handling"),
// distinct from internal/errors.ErrorType: Kind decides runner behavior
// (retry, quarantine, hold), ErrorType decides HTTP/log shape.
type Kind string

const (
	// KindInvalidInput means the item or batch itself is malformed; retrying
	// will not help. Quarantine the item, do not retry the run.
	KindInvalidInput Kind = "invalid_input"

	// KindPreconditionFailure means an upstream invariant the stage depends
	// on does not hold (e.g. missing rights record). Same handling as
	// InvalidInput.
	KindPreconditionFailure Kind = "precondition_failure"

	// KindExternalTransient means a dependency (DB, graph store, embedding
	// service) failed in a way expected to clear: retry with backoff.
	KindExternalTransient Kind = "external_transient"

	// KindExternalPermanent means a dependency rejected the request in a way
	// not expected to clear on retry (auth failure, bad request): fail the
	// run, require operator intervention.
	KindExternalPermanent Kind = "external_permanent"

	// KindIntegrityFailure means a structural graph/data invariant was
	// violated (spec.md §4.4.7 Integrity Verification): fail the run, never
	// silently auto-retry past it.
	KindIntegrityFailure Kind = "integrity_failure"

	// KindStateTransitionConflict means two controllers raced on the same
	// run (spec.md §4.1 per-run exclusive lock): safe to retry once the
	// lock is released.
	KindStateTransitionConflict Kind = "state_transition_conflict"
)

// Retryable reports whether the runner should schedule a backoff retry for
// this kind, as opposed to failing the run outright.
func (k Kind) Retryable() bool {
	switch k {
	case KindExternalTransient, KindStateTransitionConflict:
		return true
	default:
		return false
	}
}

// Classify maps an AppError (or any error) onto the spec's Kind taxonomy.
// Unclassified errors (not *AppError, or an ErrorType with no mapping here)
// default to KindExternalPermanent: the conservative choice, since treating
// an unknown failure as transient risks an infinite retry loop.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if _, ok := err.(*TransitionError); ok {
		return KindStateTransitionConflict
	}
	switch apperrors.GetType(err) {
	case apperrors.ErrorTypeValidation:
		return KindInvalidInput
	case apperrors.ErrorTypeConflict:
		return KindStateTransitionConflict
	case apperrors.ErrorTypeNetwork, apperrors.ErrorTypeTimeout, apperrors.ErrorTypeRateLimit:
		return KindExternalTransient
	case apperrors.ErrorTypeDatabase:
		return KindExternalTransient
	case apperrors.ErrorTypeAuth, apperrors.ErrorTypeNotFound:
		return KindExternalPermanent
	default:
		return KindExternalPermanent
	}
}
