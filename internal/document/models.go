package document

import (
	"time"

	id "doctrail/pkg/domain"
	"doctrail/pkg/platform/sentinel"
)

// Status is the single source of truth for a document's lifecycle position.
// Accessors derive everything from it; nothing stores is_processed or
// is_trashed booleans that could drift out of sync.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessed   Status = "processed"
	StatusTrashed     Status = "trashed"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnprocessed, StatusProcessed, StatusTrashed:
		return true
	}
	return false
}

// Document is the subject entity. The four hierarchy references are nullable
// and independently settable; TrashedAt doubles as the soft-delete marker and
// is set exactly when Status is StatusTrashed.
type Document struct {
	ID          id.DocumentID
	Name        string
	Description string

	PolicyID   *id.PolicyID
	LossID     *id.LossID
	ClaimantID *id.ClaimantID
	ProducerID *id.ProducerID

	AssignedUsers  []id.UserID
	AssignedGroups []id.GroupID

	Status    Status
	TrashedAt *time.Time

	// Version is the optimistic concurrency token, checked on every update.
	Version int64

	CreatedAt time.Time
	CreatedBy id.UserID
	UpdatedAt time.Time
	UpdatedBy id.UserID
}

func (d *Document) IsProcessed() bool { return d.Status == StatusProcessed }
func (d *Document) IsTrashed() bool   { return d.Status == StatusTrashed }

// MarkProcessed moves the document to StatusProcessed. Trashed documents must
// be restored first; there is no direct Trashed to Processed transition.
// Re-processing an already processed document is a state-level no-op.
func (d *Document) MarkProcessed() error {
	if d.IsTrashed() {
		return sentinel.ErrInvalidState
	}
	d.Status = StatusProcessed
	return nil
}

// MarkUnprocessed is the symmetric inverse of MarkProcessed.
func (d *Document) MarkUnprocessed() error {
	if d.IsTrashed() {
		return sentinel.ErrInvalidState
	}
	d.Status = StatusUnprocessed
	return nil
}

// Trash soft-deletes from any state. Re-trashing keeps the original marker so
// the audit trail, not the document row, records repeated attempts.
func (d *Document) Trash(now time.Time) {
	if d.IsTrashed() {
		return
	}
	d.Status = StatusTrashed
	d.TrashedAt = &now
}

// Restore always yields StatusUnprocessed, never StatusProcessed, and clears
// the soft-delete marker. Restoring an untrashed document is a no-op.
func (d *Document) Restore() {
	if !d.IsTrashed() {
		return
	}
	d.Status = StatusUnprocessed
	d.TrashedAt = nil
}

// Field carries a proposed value for a single attribute in a partial update.
// The zero value means "not proposed"; Present with a nil Value clears the
// attribute. Relationship rules only fire when both sides of a pair are
// proposed, so presence must be distinguishable from nil.
type Field[T any] struct {
	Present bool
	Value   *T
}

func Set[T any](v T) Field[T] { return Field[T]{Present: true, Value: &v} }
func Clear[T any]() Field[T]  { return Field[T]{Present: true} }

// MetadataUpdate is the proposed-fields payload for UpdateMetadata. Assigned
// users and groups are replaced wholesale ("sync"), never merged.
type MetadataUpdate struct {
	Description    Field[string]
	PolicyID       Field[id.PolicyID]
	LossID         Field[id.LossID]
	ClaimantID     Field[id.ClaimantID]
	ProducerID     Field[id.ProducerID]
	AssignedUsers  Field[[]id.UserID]
	AssignedGroups Field[[]id.GroupID]
}

// Empty reports whether the update proposes nothing at all.
func (u MetadataUpdate) Empty() bool {
	return !u.Description.Present && !u.PolicyID.Present && !u.LossID.Present &&
		!u.ClaimantID.Present && !u.ProducerID.Present &&
		!u.AssignedUsers.Present && !u.AssignedGroups.Present
}

// Apply writes every proposed field onto the document. Callers validate and
// diff first; Apply itself never fails.
func (d *Document) Apply(u MetadataUpdate) {
	if u.Description.Present {
		if u.Description.Value != nil {
			d.Description = *u.Description.Value
		} else {
			d.Description = ""
		}
	}
	if u.PolicyID.Present {
		d.PolicyID = u.PolicyID.Value
	}
	if u.LossID.Present {
		d.LossID = u.LossID.Value
	}
	if u.ClaimantID.Present {
		d.ClaimantID = u.ClaimantID.Value
	}
	if u.ProducerID.Present {
		d.ProducerID = u.ProducerID.Value
	}
	if u.AssignedUsers.Present {
		if u.AssignedUsers.Value != nil {
			d.AssignedUsers = append([]id.UserID(nil), (*u.AssignedUsers.Value)...)
		} else {
			d.AssignedUsers = nil
		}
	}
	if u.AssignedGroups.Present {
		if u.AssignedGroups.Value != nil {
			d.AssignedGroups = append([]id.GroupID(nil), (*u.AssignedGroups.Value)...)
		} else {
			d.AssignedGroups = nil
		}
	}
}
