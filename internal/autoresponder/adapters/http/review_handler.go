// Package http exposes the draft review API over chi.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/app"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

const defaultListLimit = 100

type ReviewHandler struct {
	service *app.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(service *app.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With("component", "review_handler"),
	}
}

func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/drafts", func(r chi.Router) {
		r.Get("/", h.ListDrafts)
		r.Route("/{draftRecordID}", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Post("/send", h.SendDraft)
			r.Post("/send-edited", h.SendEditedDraft)
			r.Post("/reject", h.RejectDraft)
			r.Delete("/", h.DeleteDraft)
		})
	})
}

type sendEditedRequestDTO struct {
	ReplyText string `json:"reply_text"`
}

type statusResponseDTO struct {
	ID     uuid.UUID          `json:"id"`
	Status domain.DraftStatus `json:"status"`
}

func (h *ReviewHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var (
		records []domain.DraftRecord
		err     error
	)
	switch scope := r.URL.Query().Get("status"); scope {
	case "", "pending":
		records, err = h.service.ListPending(ctx)
	case "all":
		records, err = h.service.ListAll(ctx, limit)
	default:
		http.Error(w, "Invalid status parameter: expected pending or all", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.mapDomainError(w, r, err, "listing drafts")
		return
	}

	// ListPending carries no SQL limit; trim here so the parameter holds
	// for both scopes.
	if len(records) > limit {
		records = records[:limit]
	}

	if records == nil {
		records = []domain.DraftRecord{}
	}
	h.respondJSON(w, http.StatusOK, records)
}

func (h *ReviewHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftRecordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.mapDomainError(w, r, err, "getting draft")
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

func (h *ReviewHandler) SendDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftRecordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Send(r.Context(), id); err != nil {
		h.mapDomainError(w, r, err, "sending draft")
		return
	}
	h.respondJSON(w, http.StatusOK, statusResponseDTO{ID: id, Status: domain.DraftStatusSentNoEdit})
}

func (h *ReviewHandler) SendEditedDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.draftRecordID(w, r)
	if !ok {
		return
	}

	var reqDTO sendEditedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request body for SendEditedDraft", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SendEdited(ctx, id, reqDTO.ReplyText); err != nil {
		h.mapDomainError(w, r, err, "sending edited draft")
		return
	}
	h.respondJSON(w, http.StatusOK, statusResponseDTO{ID: id, Status: domain.DraftStatusSentWithEdit})
}

func (h *ReviewHandler) RejectDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftRecordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Reject(r.Context(), id); err != nil {
		h.mapDomainError(w, r, err, "rejecting draft")
		return
	}
	h.respondJSON(w, http.StatusOK, statusResponseDTO{ID: id, Status: domain.DraftStatusRejected})
}

func (h *ReviewHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.draftRecordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.mapDomainError(w, r, err, "deleting draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) draftRecordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "draftRecordID"))
	if err != nil {
		http.Error(w, "Invalid draft record id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReviewHandler) mapDomainError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Draft record not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyFinalized):
		http.Error(w, "Draft record already finalized", http.StatusConflict)
	case errors.Is(err, domain.ErrEditTextRequired):
		http.Error(w, "reply_text must not be empty", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInvalidStatus):
		http.Error(w, "Invalid target status", http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "Unhandled error in review API", "error", err, "operation", operation)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *ReviewHandler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response body", "error", err)
	}
}
