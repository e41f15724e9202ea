package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/auth"
	"github.com/qualitrack/qualitrack-engine/pkg/services"
)

// TimelineHandler exposes the campaign timeline assessment endpoint.
type TimelineHandler struct {
	timeline services.TimelineService
	logger   *zap.Logger
}

// NewTimelineHandler creates a new TimelineHandler.
func NewTimelineHandler(timeline services.TimelineService, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{timeline: timeline, logger: logger.Named("timeline_handler")}
}

// RegisterRoutes registers the timeline endpoint on the given mux.
func (h *TimelineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analytics/timeline/{campaignID}", h.Assess)
}

// Assess handles GET /api/analytics/timeline/{campaignID}.
func (h *TimelineHandler) Assess(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("campaignID"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid campaign id")
		return
	}

	report, err := h.timeline.Assess(r.Context(), user, campaignID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Campagne introuvable")
		case errors.Is(err, apperrors.ErrForbidden):
			_ = ErrorResponse(w, http.StatusForbidden, "forbidden", "Accès refusé à cette campagne")
		default:
			h.logger.Error("Timeline assessment failed", zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Désolé, une erreur est survenue.")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode timeline report", zap.Error(err))
	}
}
