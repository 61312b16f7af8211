package history

import (
	"context"
	"log/slog"
	"time"

	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
)

// Trail is the audit trail engine: the single writer of history. It records
// linked action+link pairs atomically and serves ordered, paginated reads.
// The logger arrives by constructor injection; nothing here logs ambiently.
type Trail struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewTrail(store Store, logger *slog.Logger) *Trail {
	return &Trail{store: store, logger: logger, now: time.Now}
}

// Record creates one action row and one document-action link, or neither.
// Failures are reported, never thrown past this boundary; the orchestrator
// decides overall transaction fate.
func (t *Trail) Record(ctx context.Context, docID id.DocumentID, actorID id.UserID, kind Kind, description string) error {
	if kind == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action kind is required")
	}
	if actorID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	if description == "" {
		description = CanonicalDescription(kind)
	}

	action := &Action{
		Kind:        kind,
		Description: description,
		ActorID:     actorID,
		CreatedAt:   t.now(),
	}
	if err := t.store.AppendPair(ctx, docID, action); err != nil {
		t.logger.ErrorContext(ctx, "audit write failed",
			"document_id", docID.String(),
			"actor_id", actorID.String(),
			"kind", string(kind),
			"error", err.Error(),
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record action")
	}
	return nil
}

// History returns the document's history ordered by action creation time,
// default newest first, id tie-break. Unknown documents yield an empty page.
func (t *Trail) History(ctx context.Context, docID id.DocumentID, page PageRequest) ([]Entry, error) {
	entries, err := t.store.ListByDocument(ctx, docID, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	return entries, nil
}

// Last returns the most recent action, or nil when the document has none.
func (t *Trail) Last(ctx context.Context, docID id.DocumentID) (*Entry, error) {
	entries, err := t.store.ListByDocument(ctx, docID, PageRequest{Size: 1, Direction: Descending})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// FilterByKind is History additionally filtered to one action kind.
func (t *Trail) FilterByKind(ctx context.Context, docID id.DocumentID, kind Kind, page PageRequest) ([]Entry, error) {
	entries, err := t.store.ListByDocumentAndKind(ctx, docID, kind, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	return entries, nil
}

// Kinds lists the registered action vocabulary.
func (t *Trail) Kinds(ctx context.Context) ([]KindInfo, error) {
	kinds, err := t.store.Kinds(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list action kinds")
	}
	return kinds, nil
}

// RegisterKind adds a custom vocabulary entry alongside the six seeded
// lifecycle kinds.
func (t *Trail) RegisterKind(ctx context.Context, info KindInfo) error {
	if info.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action kind name is required")
	}
	if err := t.store.RegisterKind(ctx, info); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register action kind")
	}
	return nil
}
