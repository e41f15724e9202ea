package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/auth"
	"github.com/qualitrack/qualitrack-engine/pkg/services"
)

// AssistantHandler exposes the conversational analytics endpoints.
type AssistantHandler struct {
	assistant services.AssistantService
	logger    *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistant services.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, logger: logger.Named("assistant_handler")}
}

// RegisterRoutes registers the assistant endpoints on the given mux.
func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analytics/ask", h.Ask)
	mux.HandleFunc("POST /api/analytics/reformulate", h.Reformulate)
	mux.HandleFunc("GET /api/analytics/conversations", h.ListConversations)
	mux.HandleFunc("GET /api/analytics/conversations/{id}/messages", h.ListMessages)
}

type askRequest struct {
	Query          string     `json:"query"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
}

// Ask handles POST /api/analytics/ask.
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.assistant.Ask(r.Context(), user, req.Query, req.ConversationID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmptyQuestion):
			_ = ErrorResponse(w, http.StatusBadRequest, "empty_question", "Query is required")
		case errors.Is(err, apperrors.ErrNotFound):
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Conversation introuvable")
		default:
			// Pipeline failures were already recorded as an error-typed
			// agent message; the body stays non-technical.
			_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Désolé, une erreur est survenue.")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}

type reformulateRequest struct {
	Message   string `json:"message"`
	IsSubject bool   `json:"is_subject"`
}

type reformulateResponse struct {
	Reformulated string `json:"reformulated"`
}

// Reformulate handles POST /api/analytics/reformulate.
func (h *AssistantHandler) Reformulate(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireUser(r.Context()); err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req reformulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	reformulated, err := h.assistant.Reformulate(r.Context(), req.Message, req.IsSubject)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyMessage) {
			_ = ErrorResponse(w, http.StatusBadRequest, "empty_message", "Message is required")
			return
		}
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Désolé, une erreur est survenue.")
		return
	}

	if err := WriteJSON(w, http.StatusOK, reformulateResponse{Reformulated: reformulated}); err != nil {
		h.logger.Error("Failed to encode reformulate response", zap.Error(err))
	}
}

// ListConversations handles GET /api/analytics/conversations.
func (h *AssistantHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conversations, err := h.assistant.ListConversations(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Désolé, une erreur est survenue.")
		return
	}

	if err := WriteJSON(w, http.StatusOK, conversations); err != nil {
		h.logger.Error("Failed to encode conversations", zap.Error(err))
	}
}

// ListMessages handles GET /api/analytics/conversations/{id}/messages.
func (h *AssistantHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireUser(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid conversation id")
		return
	}

	messages, err := h.assistant.ListMessages(r.Context(), user, conversationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Conversation introuvable")
			return
		}
		h.logger.Error("Failed to list messages", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Désolé, une erreur est survenue.")
		return
	}

	if err := WriteJSON(w, http.StatusOK, messages); err != nil {
		h.logger.Error("Failed to encode messages", zap.Error(err))
	}
}
