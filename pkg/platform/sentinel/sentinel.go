package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrLocked: document is processed and rejects metadata mutation
// - ErrConflict: optimistic version check failed on write
// - ErrInvalidState: entity in wrong state for requested transition
// - ErrUnavailable: store temporarily unavailable
//
// For validation failures (hierarchy membership, bad input), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrLocked       = errors.New("locked")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
