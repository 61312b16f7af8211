// Package handler exposes the audit trail read endpoints and the action
// kind registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"doctrail/internal/document"
	"doctrail/internal/history"
	"doctrail/internal/platform/middleware"
	"doctrail/internal/transport/shared"
	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
	"doctrail/pkg/platform/sentinel"
)

// Trail defines the audit trail reads the handler fronts.
type Trail interface {
	History(ctx context.Context, docID id.DocumentID, page history.PageRequest) ([]history.Entry, error)
	FilterByKind(ctx context.Context, docID id.DocumentID, kind history.Kind, page history.PageRequest) ([]history.Entry, error)
	Last(ctx context.Context, docID id.DocumentID) (*history.Entry, error)
	Kinds(ctx context.Context) ([]history.KindInfo, error)
	RegisterKind(ctx context.Context, info history.KindInfo) error
}

// DocumentFinder answers whether a document exists. The trail itself returns
// an empty page for unknown documents; translating that into a 404 is this
// handler's job.
type DocumentFinder interface {
	FindByID(ctx context.Context, docID id.DocumentID) (*document.Document, error)
}

// Handler handles history endpoints.
type Handler struct {
	logger *slog.Logger
	trail  Trail
	docs   DocumentFinder
}

func New(trail Trail, docs DocumentFinder, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, trail: trail, docs: docs}
}

// Register registers the history routes with the chi router. The shared
// middleware stack is installed by the router owner.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents/{documentID}/history", h.handleHistory)
	r.Get("/documents/{documentID}/history/last", h.handleLast)
	r.Get("/action-kinds", h.handleListKinds)
	r.Post("/action-kinds", h.handleRegisterKind)
}

type entryResponse struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	ActorID     string    `json:"actor_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type historyResponse struct {
	Entries []entryResponse `json:"entries"`
	Offset  int             `json:"offset"`
	Size    int             `json:"size"`
}

func toEntryResponse(e history.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Description: e.Description,
		ActorID:     e.ActorID.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := h.resolveDocument(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var entries []history.Entry
	if kind := r.URL.Query().Get("kind"); kind != "" {
		entries, err = h.trail.FilterByKind(ctx, docID, history.Kind(kind), page)
	} else {
		entries, err = h.trail.History(ctx, docID, page)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read history",
			"request_id", middleware.GetRequestID(ctx),
			"document_id", docID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	resp := historyResponse{
		Entries: make([]entryResponse, 0, len(entries)),
		Offset:  page.Offset,
		Size:    page.Size,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := h.resolveDocument(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entry, err := h.trail.Last(ctx, docID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if entry == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document has no history"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntryResponse(*entry))
}

func (h *Handler) handleListKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := h.trail.Kinds(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, kinds)
}

type registerKindRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleRegisterKind(w http.ResponseWriter, r *http.Request) {
	var req registerKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.trail.RegisterKind(r.Context(), history.KindInfo{Name: history.Kind(req.Name), Description: req.Description}); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) resolveDocument(ctx context.Context, r *http.Request) (id.DocumentID, error) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		return id.DocumentID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document id")
	}
	if _, err := h.docs.FindByID(ctx, docID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.DocumentID{}, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return id.DocumentID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return docID, nil
}

func pageFromQuery(r *http.Request) (history.PageRequest, error) {
	var page history.PageRequest
	q := r.URL.Query()

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			return page, dErrors.New(dErrors.CodeBadRequest, "page_size must be a non-negative integer")
		}
		page.Size = size
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
		page.Offset = offset
	}
	switch q.Get("direction") {
	case "":
	case string(history.Ascending):
		page.Direction = history.Ascending
	case string(history.Descending):
		page.Direction = history.Descending
	default:
		return page, dErrors.New(dErrors.CodeBadRequest, "direction must be asc or desc")
	}
	return page, nil
}
