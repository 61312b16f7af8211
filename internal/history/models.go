package history

import (
	"time"

	id "doctrail/pkg/domain"
)

// Kind is the closed action vocabulary. New kinds may be registered at
// runtime but the six lifecycle kinds are always present.
type Kind string

const (
	KindView      Kind = "view"
	KindEdit      Kind = "edit"
	KindProcess   Kind = "process"
	KindUnprocess Kind = "unprocess"
	KindTrash     Kind = "trash"
	KindRestore   Kind = "restore"
)

// LifecycleKinds lists the seeded vocabulary in registration order.
func LifecycleKinds() []KindInfo {
	return []KindInfo{
		{Name: KindView, Description: "Document was viewed"},
		{Name: KindEdit, Description: "Document metadata was edited"},
		{Name: KindProcess, Description: "Document was marked processed"},
		{Name: KindUnprocess, Description: "Document was returned to unprocessed"},
		{Name: KindTrash, Description: "Document was moved to trash"},
		{Name: KindRestore, Description: "Document was restored from trash"},
	}
}

// KindInfo is a vocabulary entry: name plus human description.
type KindInfo struct {
	Name        Kind   `json:"name"`
	Description string `json:"description"`
}

// canonicalDescriptions are the fixed description generators for the
// lifecycle kinds. Edit is absent on purpose: its description comes from the
// validator's change-diff formatter.
var canonicalDescriptions = map[Kind]string{
	KindView:      "Document viewed",
	KindProcess:   "Marked as processed",
	KindUnprocess: "Marked as unprocessed",
	KindTrash:     "Moved to trash",
	KindRestore:   "Restored from trash",
}

// CanonicalDescription returns the fixed description for a lifecycle kind,
// or empty when the kind (like edit) carries a caller-supplied description.
func CanonicalDescription(kind Kind) string {
	return canonicalDescriptions[kind]
}

// Action is a single recorded activity, entity-agnostic and immutable once
// created. The identifier is a monotonic sequence value so the id tie-break
// on equal timestamps reproduces insertion order exactly.
type Action struct {
	ID          int64
	Kind        Kind
	Description string
	ActorID     id.UserID
	CreatedAt   time.Time
}

// Entry is the joined read model for document history: the action plus the
// document it was linked to.
type Entry struct {
	Action
	DocumentID id.DocumentID
}

// Direction orders history reads by action creation time.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// PageRequest bounds a history read. Zero Size falls back to DefaultPageSize;
// zero Direction falls back to Descending (newest first).
type PageRequest struct {
	Size      int
	Offset    int
	Direction Direction
}

const DefaultPageSize = 50

func (p PageRequest) normalize() PageRequest {
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Direction != Ascending {
		p.Direction = Descending
	}
	return p
}
