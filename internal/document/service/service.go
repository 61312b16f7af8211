package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"doctrail/internal/document"
	"doctrail/internal/history"
	"doctrail/internal/notify"
	"doctrail/internal/platform/metrics"
	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
	"doctrail/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Trail

// Trail is the audit seam the orchestrator writes through. It matches
// history.Trail and is an interface here so tests can force audit-write
// failures and assert that the state change rolls back with them.
type Trail interface {
	Record(ctx context.Context, docID id.DocumentID, actorID id.UserID, kind history.Kind, description string) error
}

// Service is the lifecycle orchestrator. Each public operation is one atomic
// unit of work: state transition or metadata write, validation, and audit
// record commit together or not at all. Notification dispatch happens only
// after commit and never unwinds the committed change.
type Service struct {
	tx         StoreTx
	docs       document.Store
	validator  *document.Validator
	trail      Trail
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func New(
	tx StoreTx,
	docs document.Store,
	validator *document.Validator,
	trail Trail,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		tx:         tx,
		docs:       docs,
		validator:  validator,
		trail:      trail,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// UpdateMetadata validates, applies, and audits a partial metadata update.
// Processed documents are locked; hierarchy-membership failures come back as
// field-level validation errors; an update proposing only current values is
// a silent no-op that writes neither document nor audit row.
func (s *Service) UpdateMetadata(ctx context.Context, docID id.DocumentID, actorID id.UserID, update document.MetadataUpdate) (*document.Document, error) {
	const op = "update_metadata"
	defer s.observe(op, s.now())

	var (
		updated *document.Document
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := s.loadDocument(ctx, docID)
		if err != nil {
			return err
		}
		if doc.IsProcessed() {
			return dErrors.New(dErrors.CodeLocked, "document is locked while processed")
		}

		fieldErrs, err := s.validator.ValidateRelationships(ctx, update)
		if err != nil {
			return s.translateStoreErr(err)
		}
		if len(fieldErrs) > 0 {
			return dErrors.NewValidation(fieldErrs)
		}

		changes, err := s.validator.DiffChanges(ctx, doc, update)
		if err != nil {
			return s.translateStoreErr(err)
		}
		if len(changes) == 0 {
			updated = doc
			return nil
		}

		doc.Apply(update)
		doc.UpdatedBy = actorID
		if err := s.docs.Update(ctx, doc); err != nil {
			return s.translateStoreErr(err)
		}

		if err := s.trail.Record(ctx, docID, actorID, history.KindEdit, document.FormatChanges(changes)); err != nil {
			return err
		}

		updated = doc
		changed = true
		return nil
	})
	if err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return nil, err
	}

	s.metrics.LifecycleOps.WithLabelValues(op).Inc()
	if changed {
		s.metrics.ActionsRecorded.Inc()
		s.dispatch(ctx, notify.EventMetadataUpdated, docID, actorID)
	}
	return updated, nil
}

// SetProcessed flips the processing status. The audit record commits with
// the status change: a status flip with no audit trail is treated as equally
// invalid as an audit record with no status flip.
func (s *Service) SetProcessed(ctx context.Context, docID id.DocumentID, actorID id.UserID, desired bool) (*document.Document, error) {
	op, kind, event := "unprocess_document", history.KindUnprocess, notify.EventUnprocessed
	if desired {
		op, kind, event = "process_document", history.KindProcess, notify.EventProcessed
	}
	defer s.observe(op, s.now())

	var updated *document.Document
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := s.loadDocument(ctx, docID)
		if err != nil {
			return err
		}

		if desired {
			err = doc.MarkProcessed()
		} else {
			err = doc.MarkUnprocessed()
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeConflict, "trashed document must be restored first")
		}

		doc.UpdatedBy = actorID
		if err := s.docs.Update(ctx, doc); err != nil {
			return s.translateStoreErr(err)
		}
		if err := s.trail.Record(ctx, docID, actorID, kind, ""); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return nil, err
	}

	s.metrics.LifecycleOps.WithLabelValues(op).Inc()
	s.metrics.ActionsRecorded.Inc()
	s.dispatch(ctx, event, docID, actorID)
	return updated, nil
}

// TrashDocument soft-deletes from any state. Re-trashing is a state-level
// no-op but still produces an audit entry.
func (s *Service) TrashDocument(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error) {
	const op = "trash_document"
	defer s.observe(op, s.now())

	var updated *document.Document
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := s.loadDocument(ctx, docID)
		if err != nil {
			return err
		}
		doc.Trash(s.now())
		doc.UpdatedBy = actorID
		if err := s.docs.Update(ctx, doc); err != nil {
			return s.translateStoreErr(err)
		}
		if err := s.trail.Record(ctx, docID, actorID, history.KindTrash, ""); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return nil, err
	}

	s.metrics.LifecycleOps.WithLabelValues(op).Inc()
	s.metrics.ActionsRecorded.Inc()
	s.dispatch(ctx, notify.EventTrashed, docID, actorID)
	return updated, nil
}

// RestoreDocument brings a trashed document back, always to unprocessed,
// clearing the soft-delete marker.
func (s *Service) RestoreDocument(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error) {
	const op = "restore_document"
	defer s.observe(op, s.now())

	var updated *document.Document
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := s.loadDocument(ctx, docID)
		if err != nil {
			return err
		}
		doc.Restore()
		doc.UpdatedBy = actorID
		if err := s.docs.Update(ctx, doc); err != nil {
			return s.translateStoreErr(err)
		}
		if err := s.trail.Record(ctx, docID, actorID, history.KindRestore, ""); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return nil, err
	}

	s.metrics.LifecycleOps.WithLabelValues(op).Inc()
	s.metrics.ActionsRecorded.Inc()
	s.dispatch(ctx, notify.EventRestored, docID, actorID)
	return updated, nil
}

// RecordView logs a view action without touching the document. Every view is
// logged; there is no de-duplication. Views do not notify assignees.
func (s *Service) RecordView(ctx context.Context, docID id.DocumentID, actorID id.UserID) error {
	const op = "record_view"
	defer s.observe(op, s.now())

	if _, err := s.loadDocument(ctx, docID); err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return err
	}
	if err := s.trail.Record(ctx, docID, actorID, history.KindView, ""); err != nil {
		s.fail(ctx, op, docID, actorID, err)
		return err
	}
	s.metrics.LifecycleOps.WithLabelValues(op).Inc()
	s.metrics.ActionsRecorded.Inc()
	return nil
}

func (s *Service) loadDocument(ctx context.Context, docID id.DocumentID) (*document.Document, error) {
	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc, nil
}

// translateStoreErr maps infrastructure sentinels onto domain codes and
// hides raw storage detail behind a generic failure.
func (s *Service) translateStoreErr(err error) error {
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "referenced entity not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "document was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "operation failed")
	}
}

// dispatch fires the post-commit notification. Best-effort: failures are
// logged and swallowed, never propagated to the caller.
func (s *Service) dispatch(ctx context.Context, event notify.Event, docID id.DocumentID, actorID id.UserID) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Notify(ctx, event, docID, actorID); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"event", string(event),
			"document_id", docID.String(),
			"actor_id", actorID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) fail(ctx context.Context, op string, docID id.DocumentID, actorID id.UserID, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		code = de.Code
	}
	s.metrics.LifecycleErrors.WithLabelValues(op, string(code)).Inc()
	// Expected domain outcomes are the caller's concern; only infrastructure
	// failures get logged with operation context here.
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		s.logger.ErrorContext(ctx, "lifecycle operation failed",
			"operation", op,
			"document_id", docID.String(),
			"actor_id", actorID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) observe(op string, start time.Time) {
	s.metrics.OperationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
