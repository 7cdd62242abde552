package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// mockChatService is a configurable mock for all handler tests.
type mockChatService struct {
	session     *models.ChatSession
	schema      []models.ColumnDescriptor
	message     *models.ChatMessage
	messages    []*models.ChatMessage
	suggestions []string
	err         error

	loadedDataset *models.Dataset
	askedQuestion string
	endedSession  uuid.UUID
}

func (m *mockChatService) StartSession(ctx context.Context) (*models.ChatSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.session != nil {
		return m.session, nil
	}
	return &models.ChatSession{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (m *mockChatService) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	m.endedSession = sessionID
	return m.err
}

func (m *mockChatService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ChatSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.session != nil {
		return m.session, nil
	}
	return &models.ChatSession{
		ID:        sessionID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (m *mockChatService) LoadDataset(ctx context.Context, sessionID uuid.UUID, dataset *models.Dataset) ([]models.ColumnDescriptor, error) {
	m.loadedDataset = dataset
	if m.err != nil {
		return nil, m.err
	}
	return m.schema, nil
}

func (m *mockChatService) History(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.messages, nil
}

func (m *mockChatService) Suggestions(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.suggestions, nil
}

func (m *mockChatService) Ask(ctx context.Context, sessionID uuid.UUID, question string) (*models.ChatMessage, error) {
	m.askedQuestion = question
	if m.err != nil {
		return nil, m.err
	}
	if m.message != nil {
		return m.message, nil
	}
	return &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      models.ChatRoleAssistant,
		Content:   "Found 3 projects with Red status.",
		Source:    models.AnswerSourceRules,
		CreatedAt: time.Now(),
	}, nil
}
