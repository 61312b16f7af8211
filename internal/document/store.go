package document

import (
	"context"

	id "doctrail/pkg/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Implementations return pkg/platform/sentinel errors for factual
// states (not found, version conflict).
type Store interface {
	FindByID(ctx context.Context, docID id.DocumentID) (*Document, error)
	// Update persists scalar fields, status, soft-delete marker, and replaces
	// assignee membership with the document's current sets. The write is
	// guarded by the optimistic version token: a stale version yields
	// sentinel.ErrConflict and the document is left untouched.
	Update(ctx context.Context, doc *Document) error
}

// HierarchyStore answers relationship-membership questions and resolves ids
// to their human display form. Membership is association-row existence:
// a Loss is valid for a Policy only while a Policy-Loss association exists,
// a Claimant for a Loss only while a Loss-Claimant association exists.
// Claimant-to-Policy validity is transitive through Loss only.
type HierarchyStore interface {
	PolicyLossLinked(ctx context.Context, policyID id.PolicyID, lossID id.LossID) (bool, error)
	LossClaimantLinked(ctx context.Context, lossID id.LossID, claimantID id.ClaimantID) (bool, error)

	// LossSequence returns the loss's 1-based position under its policy,
	// ordered by association creation time. Computed on read, never cached.
	LossSequence(ctx context.Context, lossID id.LossID) (int, error)

	PolicyDisplay(ctx context.Context, policyID id.PolicyID) (string, error)
	LossDisplay(ctx context.Context, lossID id.LossID) (string, error)
	ClaimantDisplay(ctx context.Context, claimantID id.ClaimantID) (string, error)
	ProducerDisplay(ctx context.Context, producerID id.ProducerID) (string, error)
	UserDisplay(ctx context.Context, userID id.UserID) (string, error)
	GroupDisplay(ctx context.Context, groupID id.GroupID) (string, error)
}
