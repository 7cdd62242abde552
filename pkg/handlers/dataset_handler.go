package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/services"
)

// LoadDatasetResponse is the response for PUT /api/sessions/{sid}/dataset.
type LoadDatasetResponse struct {
	Schema  []models.ColumnDescriptor `json:"schema"`
	Rows    int                       `json:"rows"`
	Columns int                       `json:"columns"`
}

// SchemaResponse is the response for GET /api/sessions/{sid}/dataset/schema.
type SchemaResponse struct {
	Schema []models.ColumnDescriptor `json:"schema"`
}

// DatasetHandler handles dataset upload and schema HTTP requests.
type DatasetHandler struct {
	chatService services.ChatService
	logger      *zap.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(chatService services.ChatService, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// RegisterRoutes registers the dataset handler's routes on the given mux.
func (h *DatasetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/sessions/{sid}/dataset", h.Load)
	mux.HandleFunc("GET /api/sessions/{sid}/dataset/schema", h.Schema)
}

// Load handles PUT /api/sessions/{sid}/dataset
// Replaces the session's dataset with the uploaded rows and returns the
// introspected schema. The dashboard calls this on every page filter change.
func (h *DatasetHandler) Load(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	var dataset models.Dataset
	if err := DecodeJSON(r, &dataset); err != nil {
		h.logger.Debug("Failed to decode dataset payload",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid dataset payload"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	schema, err := h.chatService.LoadDataset(r.Context(), sessionID, &dataset)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSessionNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrEmptyDataset):
			if err := ErrorResponse(w, http.StatusUnprocessableEntity, "empty_dataset", "Dataset must contain at least one column and one row"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to load dataset",
				zap.String("session_id", sessionID.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load dataset"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	response := ApiResponse{
		Success: true,
		Data: LoadDatasetResponse{
			Schema:  schema,
			Rows:    dataset.RowCount(),
			Columns: dataset.ColumnCount(),
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Schema handles GET /api/sessions/{sid}/dataset/schema
// Returns the schema introspected from the currently loaded dataset.
func (h *DatasetHandler) Schema(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.chatService.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
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

	if !session.HasDataset() {
		if err := ErrorResponse(w, http.StatusNotFound, "no_dataset", "No dataset loaded"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{
		Success: true,
		Data: SchemaResponse{
			Schema: session.Schema,
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
