package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "datachat/internal/errors"
)

// AnalyzeRequest is the analyze endpoint body. Field names match the
// frontend contract.
type AnalyzeRequest struct {
	BusinessID string `json:"businessId" validate:"required"`
	UserQuery  string `json:"user_query" validate:"required"`
}

// AnalyzeHandler streams analysis sessions over SSE.
type AnalyzeHandler struct {
	service  AnalysisService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAnalyzeHandler creates the analyze handler.
func NewAnalyzeHandler(service AnalysisService, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "analyze")),
	}
}

// Analyze handles POST /analyze. The response is an SSE stream; once
// streaming starts, failures surface as events, never as HTTP errors.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(validationError(err)))
		return
	}

	sink, err := NewSSEWriter(w)
	if err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrStreamUnsupported))
		return
	}

	h.logger.InfoContext(r.Context(), "analysis stream opened",
		slog.String("business_id", req.BusinessID))

	if err := h.service.Analyze(r.Context(), req.BusinessID, req.UserQuery, sink); err != nil {
		// Headers are already out; all we can do is log why the stream
		// ended early.
		h.logger.WarnContext(r.Context(), "analysis stream ended early",
			slog.String("business_id", req.BusinessID),
			slog.String("error", err.Error()))
	}
}

// validationError maps the first validator failure to a field error.
func validationError(err error) *apierrors.APIError {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return apierrors.ErrValidation(verrs[0].Field(), "failed on "+verrs[0].Tag())
	}
	return apierrors.ErrValidationFailed
}
