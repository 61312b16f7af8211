// Package handler exposes the document lifecycle operations over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"doctrail/internal/document"
	"doctrail/internal/platform/middleware"
	"doctrail/internal/transport/shared"
	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
)

// Service defines the lifecycle operations the handler fronts.
type Service interface {
	UpdateMetadata(ctx context.Context, docID id.DocumentID, actorID id.UserID, update document.MetadataUpdate) (*document.Document, error)
	SetProcessed(ctx context.Context, docID id.DocumentID, actorID id.UserID, desired bool) (*document.Document, error)
	TrashDocument(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error)
	RestoreDocument(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error)
	RecordView(ctx context.Context, docID id.DocumentID, actorID id.UserID) error
}

// Handler handles document lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the document routes with the chi router. The shared
// middleware stack (recovery, request id, logging, timeout) is installed by
// the router owner.
func (h *Handler) Register(r chi.Router) {
	r.Patch("/documents/{documentID}", h.handleUpdateMetadata)
	r.Post("/documents/{documentID}/process", h.handleProcess)
	r.Post("/documents/{documentID}/unprocess", h.handleUnprocess)
	r.Post("/documents/{documentID}/trash", h.handleTrash)
	r.Post("/documents/{documentID}/restore", h.handleRestore)
	r.Post("/documents/{documentID}/views", h.handleRecordView)
}

// updateMetadataRequest distinguishes absent fields from explicit nulls:
// a key that is missing is not proposed, a key set to null clears the
// attribute. json.RawMessage keeps that distinction through decoding.
type updateMetadataRequest struct {
	Description      json.RawMessage `json:"description"`
	PolicyID         json.RawMessage `json:"policy_id"`
	LossID           json.RawMessage `json:"loss_id"`
	ClaimantID       json.RawMessage `json:"claimant_id"`
	ProducerID       json.RawMessage `json:"producer_id"`
	AssignedUserIDs  json.RawMessage `json:"assigned_user_ids"`
	AssignedGroupIDs json.RawMessage `json:"assigned_group_ids"`
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func (req updateMetadataRequest) toUpdate() (document.MetadataUpdate, error) {
	var update document.MetadataUpdate

	if len(req.Description) > 0 {
		if isNull(req.Description) {
			update.Description = document.Clear[string]()
		} else {
			var s string
			if err := json.Unmarshal(req.Description, &s); err != nil {
				return update, dErrors.New(dErrors.CodeBadRequest, "description must be a string")
			}
			update.Description = document.Set(s)
		}
	}

	if field, err := parseIDField(req.PolicyID, id.ParsePolicyID, "policy_id"); err != nil {
		return update, err
	} else {
		update.PolicyID = field
	}
	if field, err := parseIDField(req.LossID, id.ParseLossID, "loss_id"); err != nil {
		return update, err
	} else {
		update.LossID = field
	}
	if field, err := parseIDField(req.ClaimantID, id.ParseClaimantID, "claimant_id"); err != nil {
		return update, err
	} else {
		update.ClaimantID = field
	}
	if field, err := parseIDField(req.ProducerID, id.ParseProducerID, "producer_id"); err != nil {
		return update, err
	} else {
		update.ProducerID = field
	}

	if field, err := parseIDListField(req.AssignedUserIDs, id.ParseUserID, "assigned_user_ids"); err != nil {
		return update, err
	} else {
		update.AssignedUsers = field
	}
	if field, err := parseIDListField(req.AssignedGroupIDs, id.ParseGroupID, "assigned_group_ids"); err != nil {
		return update, err
	} else {
		update.AssignedGroups = field
	}

	return update, nil
}

func parseIDField[T any](raw json.RawMessage, parse func(string) (T, error), name string) (document.Field[T], error) {
	if len(raw) == 0 {
		return document.Field[T]{}, nil
	}
	if isNull(raw) {
		return document.Clear[T](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return document.Field[T]{}, dErrors.New(dErrors.CodeBadRequest, name+" must be a string or null")
	}
	v, err := parse(s)
	if err != nil {
		return document.Field[T]{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+name)
	}
	return document.Set(v), nil
}

func parseIDListField[T any](raw json.RawMessage, parse func(string) (T, error), name string) (document.Field[[]T], error) {
	if len(raw) == 0 {
		return document.Field[[]T]{}, nil
	}
	if isNull(raw) {
		return document.Clear[[]T](), nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return document.Field[[]T]{}, dErrors.New(dErrors.CodeBadRequest, name+" must be an array of strings or null")
	}
	out := make([]T, 0, len(ss))
	for _, s := range ss {
		v, err := parse(s)
		if err != nil {
			return document.Field[[]T]{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+name)
		}
		out = append(out, v)
	}
	return document.Set(out), nil
}

// documentResponse is the JSON shape returned after a lifecycle operation.
type documentResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	PolicyID         *string    `json:"policy_id"`
	LossID           *string    `json:"loss_id"`
	ClaimantID       *string    `json:"claimant_id"`
	ProducerID       *string    `json:"producer_id"`
	AssignedUserIDs  []string   `json:"assigned_user_ids"`
	AssignedGroupIDs []string   `json:"assigned_group_ids"`
	Status           string     `json:"status"`
	TrashedAt        *time.Time `json:"trashed_at,omitempty"`
	Version          int64      `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toDocumentResponse(doc *document.Document) documentResponse {
	resp := documentResponse{
		ID:               doc.ID.String(),
		Name:             doc.Name,
		Description:      doc.Description,
		AssignedUserIDs:  make([]string, 0, len(doc.AssignedUsers)),
		AssignedGroupIDs: make([]string, 0, len(doc.AssignedGroups)),
		Status:           string(doc.Status),
		TrashedAt:        doc.TrashedAt,
		Version:          doc.Version,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.PolicyID != nil {
		s := doc.PolicyID.String()
		resp.PolicyID = &s
	}
	if doc.LossID != nil {
		s := doc.LossID.String()
		resp.LossID = &s
	}
	if doc.ClaimantID != nil {
		s := doc.ClaimantID.String()
		resp.ClaimantID = &s
	}
	if doc.ProducerID != nil {
		s := doc.ProducerID.String()
		resp.ProducerID = &s
	}
	for _, u := range doc.AssignedUsers {
		resp.AssignedUserIDs = append(resp.AssignedUserIDs, u.String())
	}
	for _, g := range doc.AssignedGroups {
		resp.AssignedGroupIDs = append(resp.AssignedGroupIDs, g.String())
	}
	return resp
}

// requestIdentity extracts the document id from the path and the acting user
// from the X-Actor-ID header. Authentication is owned by the gateway in front
// of this service; the header carries the already-verified identity.
func (h *Handler) requestIdentity(r *http.Request) (id.DocumentID, id.UserID, error) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		return id.DocumentID{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document id")
	}
	actorID, err := id.ParseUserID(r.Header.Get("X-Actor-ID"))
	if err != nil {
		return id.DocumentID{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "missing or invalid X-Actor-ID header")
	}
	return docID, actorID, nil
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, actorID, err := h.requestIdentity(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req updateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update metadata request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	doc, err := h.service.UpdateMetadata(ctx, docID, actorID, update)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, func(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error) {
		return h.service.SetProcessed(ctx, docID, actorID, true)
	})
}

func (h *Handler) handleUnprocess(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, func(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error) {
		return h.service.SetProcessed(ctx, docID, actorID, false)
	})
}

func (h *Handler) handleTrash(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.service.TrashDocument)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.service.RestoreDocument)
}

func (h *Handler) handleStatusChange(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, docID id.DocumentID, actorID id.UserID) (*document.Document, error),
) {
	docID, actorID, err := h.requestIdentity(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := op(r.Context(), docID, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleRecordView(w http.ResponseWriter, r *http.Request) {
	docID, actorID, err := h.requestIdentity(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.RecordView(r.Context(), docID, actorID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
