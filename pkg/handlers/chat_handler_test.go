package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/models"
)

func newAskRequest(sessionID uuid.UUID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost,
		"/api/sessions/"+sessionID.String()+"/chat",
		strings.NewReader(body))
	req.SetPathValue("sid", sessionID.String())
	return req
}

func TestChatHandler_Ask(t *testing.T) {
	sessionID := uuid.New()
	messageID := uuid.New()
	mockService := &mockChatService{
		message: &models.ChatMessage{
			ID:        messageID,
			SessionID: sessionID,
			Role:      models.ChatRoleAssistant,
			Content:   "Found 3 projects with Red status.\n\nBreakdown: Red: 2, R: 1",
			Source:    models.AnswerSourceRules,
			CreatedAt: time.Now(),
		},
	}
	handler := NewChatHandler(mockService, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":"How many projects have status Red?"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "How many projects have status Red?", mockService.askedQuestion)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, messageID.String(), data["message_id"])

	answer, ok := data["answer"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Found 3 projects with Red status.\n\nBreakdown: Red: 2, R: 1", answer["text"])
	assert.Equal(t, "rules", answer["source"])
	assert.NotContains(t, answer, "chart")
	assert.NotContains(t, answer, "warning")
}

func TestChatHandler_Ask_WithChart(t *testing.T) {
	sessionID := uuid.New()
	mockService := &mockChatService{
		message: &models.ChatMessage{
			ID:        uuid.New(),
			SessionID: sessionID,
			Role:      models.ChatRoleAssistant,
			Content:   "The total revenue for Aramco Digital is $300.00 across 2 projects.",
			Chart: &models.ChartDescriptor{
				Kind:  models.ChartKindBar,
				X:     "Customer Name",
				Y:     "Revenue",
				Title: "Revenue by Customer Name",
			},
			Source:    models.AnswerSourceRules,
			CreatedAt: time.Now(),
		},
	}
	handler := NewChatHandler(mockService, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":"What is the total revenue for Aramco Digital?"}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	answer, ok := data["answer"].(map[string]interface{})
	require.True(t, ok)
	chart, ok := answer["chart"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bar", chart["kind"])
	assert.Equal(t, "Customer Name", chart["x"])
	assert.Equal(t, "Revenue", chart["y"])
	assert.Equal(t, "Revenue by Customer Name", chart["title"])
}

func TestChatHandler_Ask_FallbackWarning(t *testing.T) {
	sessionID := uuid.New()
	mockService := &mockChatService{
		message: &models.ChatMessage{
			ID:        uuid.New(),
			SessionID: sessionID,
			Role:      models.ChatRoleAssistant,
			Content:   "Found 3 projects with Red status.",
			Warning:   "AI analysis failed: connection refused... Falling back to local analysis.",
			Source:    models.AnswerSourceRules,
			CreatedAt: time.Now(),
		},
	}
	handler := NewChatHandler(mockService, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":"How many projects have status Red?"}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	answer, ok := data["answer"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "AI analysis failed: connection refused... Falling back to local analysis.", answer["warning"])
}

func TestChatHandler_Ask_BlankQuestion(t *testing.T) {
	handler := NewChatHandler(&mockChatService{}, zap.NewNop())

	sessionID := uuid.New()
	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":"   "}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid_request", resp.Error)
	assert.Equal(t, "Question must not be empty", resp.Message)
}

func TestChatHandler_Ask_MalformedBody(t *testing.T) {
	handler := NewChatHandler(&mockChatService{}, zap.NewNop())

	sessionID := uuid.New()
	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_Ask_SessionNotFound(t *testing.T) {
	mockService := &mockChatService{err: apperrors.ErrSessionNotFound}
	handler := NewChatHandler(mockService, zap.NewNop())

	sessionID := uuid.New()
	rec := httptest.NewRecorder()
	handler.Ask(rec, newAskRequest(sessionID, `{"question":"How many projects have status Red?"}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "session_not_found", resp.Error)
}

func TestChatHandler_Messages(t *testing.T) {
	sessionID := uuid.New()
	mockService := &mockChatService{
		messages: []*models.ChatMessage{
			{
				ID:        uuid.New(),
				SessionID: sessionID,
				Role:      models.ChatRoleUser,
				Content:   "How many projects have status Red?",
				CreatedAt: time.Now(),
			},
			{
				ID:        uuid.New(),
				SessionID: sessionID,
				Role:      models.ChatRoleAssistant,
				Content:   "Found 3 projects with Red status.",
				Source:    models.AnswerSourceRules,
				CreatedAt: time.Now(),
			},
		},
	}
	handler := NewChatHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/sessions/"+sessionID.String()+"/messages", nil)
	req.SetPathValue("sid", sessionID.String())

	rec := httptest.NewRecorder()
	handler.Messages(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	messages, ok := data["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)

	first, ok := messages[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "How many projects have status Red?", first["content"])

	second, ok := messages[1].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "assistant", second["role"])
	assert.Equal(t, "rules", second["source"])
}

func TestChatHandler_Messages_EmptyTranscript(t *testing.T) {
	handler := NewChatHandler(&mockChatService{}, zap.NewNop())

	sessionID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/sessions/"+sessionID.String()+"/messages", nil)
	req.SetPathValue("sid", sessionID.String())

	rec := httptest.NewRecorder()
	handler.Messages(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// An empty transcript serializes as [], not null.
	assert.Contains(t, rec.Body.String(), `"messages":[]`)
}

func TestChatHandler_Messages_SessionNotFound(t *testing.T) {
	mockService := &mockChatService{err: apperrors.ErrSessionNotFound}
	handler := NewChatHandler(mockService, zap.NewNop())

	sessionID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/sessions/"+sessionID.String()+"/messages", nil)
	req.SetPathValue("sid", sessionID.String())

	rec := httptest.NewRecorder()
	handler.Messages(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_Suggestions(t *testing.T) {
	sessionID := uuid.New()
	mockService := &mockChatService{
		suggestions: []string{
			"How many projects have status Red?",
			"What is the total revenue?",
		},
	}
	handler := NewChatHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/sessions/"+sessionID.String()+"/suggestions", nil)
	req.SetPathValue("sid", sessionID.String())

	rec := httptest.NewRecorder()
	handler.Suggestions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	suggestions, ok := data["suggestions"].([]interface{})
	require.True(t, ok)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "How many projects have status Red?", suggestions[0])
}

func TestChatHandler_Suggestions_SessionNotFound(t *testing.T) {
	mockService := &mockChatService{err: apperrors.ErrSessionNotFound}
	handler := NewChatHandler(mockService, zap.NewNop())

	sessionID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/sessions/"+sessionID.String()+"/suggestions", nil)
	req.SetPathValue("sid", sessionID.String())

	rec := httptest.NewRecorder()
	handler.Suggestions(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
