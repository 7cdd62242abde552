package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/auth"
	"github.com/dashlytics/insight-engine/pkg/services"
)

// CreateSessionResponse is the response for POST /api/sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// CurrentSessionResponse is the response for GET /api/sessions/current.
type CurrentSessionResponse struct {
	SessionID    string `json:"session_id"`
	HasDataset   bool   `json:"has_dataset"`
	MessageCount int    `json:"message_count"`
}

// SessionHandler handles chat session lifecycle HTTP requests.
type SessionHandler struct {
	chatService services.ChatService
	cookies     *auth.CookieStore
	logger      *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(chatService services.ChatService, cookies *auth.CookieStore, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		chatService: chatService,
		cookies:     cookies,
		logger:      logger,
	}
}

// RegisterRoutes registers the session handler's routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.Create)
	mux.HandleFunc("GET /api/sessions/current", h.Current)
	mux.HandleFunc("DELETE /api/sessions/{sid}", h.Delete)
}

// Create handles POST /api/sessions
// Starts an empty chat session and binds it to the browser cookie.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.StartSession(r.Context())
	if err != nil {
		h.logger.Error("Failed to start session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to start session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// A cookie failure is not fatal: the client still receives the session
	// ID in the body and can address the session by path.
	if err := h.cookies.Bind(w, r, session.ID); err != nil {
		h.logger.Warn("Failed to set session cookie",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}

	response := ApiResponse{
		Success: true,
		Data: CreateSessionResponse{
			SessionID: session.ID.String(),
		},
	}

	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Current handles GET /api/sessions/current
// Resolves the session bound to the browser cookie, so a dashboard reload
// reconnects to its transcript instead of starting over.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.cookies.Current(r)
	if !ok {
		if err := ErrorResponse(w, http.StatusNotFound, "no_session", "No active session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, err := h.chatService.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			// Stale cookie from before a restart; drop it.
			if err := h.cookies.Clear(w, r); err != nil {
				h.logger.Warn("Failed to clear session cookie", zap.Error(err))
			}
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get session",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{
		Success: true,
		Data: CurrentSessionResponse{
			SessionID:    session.ID.String(),
			HasDataset:   session.HasDataset(),
			MessageCount: len(session.Messages),
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/sessions/{sid}
// Ends the session and clears the browser cookie when it pointed at it.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.chatService.EndSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to end session",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to end session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if current, ok := h.cookies.Current(r); ok && current == sessionID {
		if err := h.cookies.Clear(w, r); err != nil {
			h.logger.Warn("Failed to clear session cookie", zap.Error(err))
		}
	}

	response := ApiResponse{
		Success: true,
		Message: "Session ended",
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
