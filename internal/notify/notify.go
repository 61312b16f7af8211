// Package notify defines the outbound notification collaborator contract.
// Dispatch happens strictly after a lifecycle transaction commits; delivery
// is best-effort and a failure must never unwind the committed change.
package notify

import (
	"context"
	"log/slog"

	id "doctrail/pkg/domain"
)

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Dispatcher

// Event identifies what happened to the document.
type Event string

const (
	EventMetadataUpdated Event = "metadata_updated"
	EventProcessed       Event = "processed"
	EventUnprocessed     Event = "unprocessed"
	EventTrashed         Event = "trashed"
	EventRestored        Event = "restored"
)

// Dispatcher is the fire-and-forget notification seam. Implementations own
// delivery (email to assignees, webhooks); callers only log failures.
type Dispatcher interface {
	Notify(ctx context.Context, event Event, docID id.DocumentID, actorID id.UserID) error
}

// LogDispatcher records dispatches through the injected logger. It stands in
// for the real delivery channel in development and tests.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(ctx context.Context, event Event, docID id.DocumentID, actorID id.UserID) error {
	d.logger.InfoContext(ctx, "notification dispatched",
		"event", string(event),
		"document_id", docID.String(),
		"actor_id", actorID.String(),
	)
	return nil
}
