package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"datachat/internal/conversations"
	apierrors "datachat/internal/errors"
)

// ConversationCreateRequest is the create/upsert body.
type ConversationCreateRequest struct {
	ID         string          `json:"id" validate:"required"`
	UserID     string          `json:"userId" validate:"required"`
	BusinessID string          `json:"businessId" validate:"required"`
	Title      string          `json:"title" validate:"required"`
	Messages   json.RawMessage `json:"messages"`
}

// ConversationUpdateRequest replaces the message history.
type ConversationUpdateRequest struct {
	Messages json.RawMessage `json:"messages" validate:"required"`
}

// ConversationsHandler serves the conversation REST surface.
type ConversationsHandler struct {
	service  ConversationService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewConversationsHandler creates the conversations handler.
func NewConversationsHandler(service ConversationService, logger *slog.Logger) *ConversationsHandler {
	return &ConversationsHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "conversations")),
	}
}

// Create handles POST /conversations. Posting an existing id updates
// title and messages in place.
func (h *ConversationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ConversationCreateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(validationError(err)))
		return
	}

	conv := conversations.Conversation{
		ID:         req.ID,
		UserID:     req.UserID,
		BusinessID: req.BusinessID,
		Title:      req.Title,
		Messages:   req.Messages,
	}
	if err := h.service.Save(r.Context(), conv); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to save conversation",
			slog.String("conversation_id", req.ID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StorageError("save", err)))
		return
	}

	render.JSON(w, r, map[string]string{"status": "success", "id": req.ID})
}

// Update handles PUT /conversations/{conversationID}.
func (h *ConversationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var req ConversationUpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(validationError(err)))
		return
	}

	if err := h.service.UpdateMessages(r.Context(), id, req.Messages); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to update conversation",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StorageError("update", err)))
		return
	}

	render.JSON(w, r, map[string]string{"status": "success", "id": id})
}

// List handles GET /conversations/{userID}.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	convs, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list conversations",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StorageError("list", err)))
		return
	}

	render.JSON(w, r, convs)
}

// Get handles GET /conversations/{userID}/{conversationID}.
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	id := chi.URLParam(r, "conversationID")

	conv, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrConversationNotFound))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get conversation",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StorageError("get", err)))
		return
	}

	render.JSON(w, r, conv)
}

// Delete handles DELETE /conversations/{conversationID}.
func (h *ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete conversation",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StorageError("delete", err)))
		return
	}

	render.JSON(w, r, map[string]string{"status": "success"})
}
