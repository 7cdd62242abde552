package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/services"
)

// ChatRequest is the request body for POST /api/sessions/{sid}/chat.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the response for POST /api/sessions/{sid}/chat.
type ChatResponse struct {
	MessageID string        `json:"message_id"`
	Answer    models.Answer `json:"answer"`
}

// MessagesResponse is the response for GET /api/sessions/{sid}/messages.
type MessagesResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
}

// SuggestionsResponse is the response for GET /api/sessions/{sid}/suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ChatHandler handles chat turn and transcript HTTP requests.
type ChatHandler struct {
	chatService services.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions/{sid}/chat", h.Ask)
	mux.HandleFunc("GET /api/sessions/{sid}/messages", h.Messages)
	mux.HandleFunc("GET /api/sessions/{sid}/suggestions", h.Suggestions)
}

// Ask handles POST /api/sessions/{sid}/chat
// Runs one chat turn and returns the assistant's answer. Questions that
// cannot be answered still produce a 200 with explanatory answer text;
// non-200 statuses mean the turn itself could not run.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req ChatRequest
	if err := DecodeJSON(r, &req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Question must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	message, err := h.chatService.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to process question",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to process question"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{
		Success: true,
		Data: ChatResponse{
			MessageID: message.ID.String(),
			Answer: models.Answer{
				Text:    message.Content,
				Chart:   message.Chart,
				Warning: message.Warning,
				Source:  message.Source,
			},
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Messages handles GET /api/sessions/{sid}/messages
// Returns the session transcript in append order.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	messages, err := h.chatService.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to list messages",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list messages"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	response := ApiResponse{
		Success: true,
		Data: MessagesResponse{
			Messages: messages,
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Suggestions handles GET /api/sessions/{sid}/suggestions
// Returns example questions tailored to the loaded schema, or generic
// starters when no dataset is loaded yet.
func (h *ChatHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	suggestions, err := h.chatService.Suggestions(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to build suggestions",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to build suggestions"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{
		Success: true,
		Data: SuggestionsResponse{
			Suggestions: suggestions,
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
