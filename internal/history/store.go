package history

import (
	"context"

	id "doctrail/pkg/domain"
)

// Store persists the append-only action log and its document links. There is
// no update or delete path; history only grows.
type Store interface {
	// AppendPair creates exactly one action row and exactly one
	// document-action link row, or neither. On success the action's ID and
	// CreatedAt are filled in. Implementations must make the pair atomic:
	// a partial write must never become visible to readers.
	AppendPair(ctx context.Context, docID id.DocumentID, action *Action) error

	// ListByDocument reads history ordered by action creation time with the
	// action id as tie-break. An unknown document yields an empty page, not
	// an error; existence checks belong to the caller.
	ListByDocument(ctx context.Context, docID id.DocumentID, page PageRequest) ([]Entry, error)

	// ListByDocumentAndKind is ListByDocument additionally filtered.
	ListByDocumentAndKind(ctx context.Context, docID id.DocumentID, kind Kind, page PageRequest) ([]Entry, error)

	// RegisterKind adds a vocabulary entry; registering an existing kind is
	// a no-op.
	RegisterKind(ctx context.Context, info KindInfo) error

	// Kinds lists the registered vocabulary.
	Kinds(ctx context.Context) ([]KindInfo, error)
}
