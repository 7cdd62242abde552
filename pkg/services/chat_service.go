package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/logging"
	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/repositories"
)

// ChatService owns the chat loop for the dashboard: session lifecycle,
// dataset loading, and the turn pipeline that maps a free-text question to
// an answer.
type ChatService interface {
	// StartSession creates an empty session with no dataset loaded.
	StartSession(ctx context.Context) (*models.ChatSession, error)

	// EndSession drops the session along with its dataset and transcript.
	EndSession(ctx context.Context, sessionID uuid.UUID) error

	// GetSession returns a snapshot of the session.
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ChatSession, error)

	// LoadDataset replaces the session's dataset, introspects its schema,
	// and resets the transcript with a fresh opening message. Datasets
	// without columns or rows are rejected with apperrors.ErrEmptyDataset.
	LoadDataset(ctx context.Context, sessionID uuid.UUID, dataset *models.Dataset) ([]models.ColumnDescriptor, error)

	// History returns the transcript in append order.
	History(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error)

	// Suggestions returns example questions tailored to the loaded schema.
	Suggestions(ctx context.Context, sessionID uuid.UUID) ([]string, error)

	// Ask runs one chat turn: the question and its answer are appended to
	// the transcript and the assistant message is returned. Turns on the
	// same session serialize; every turn completes with a non-empty answer.
	Ask(ctx context.Context, sessionID uuid.UUID, question string) (*models.ChatMessage, error)
}

type chatService struct {
	sessions repositories.SessionRepository
	schema   SchemaService
	gateway  AIGateway
	logger   *zap.Logger
}

// NewChatService creates a new chat service. The gateway may report
// unavailable when no AI provider is configured; the local pipeline then
// answers every question.
func NewChatService(sessions repositories.SessionRepository, schema SchemaService, gateway AIGateway, logger *zap.Logger) ChatService {
	return &chatService{
		sessions: sessions,
		schema:   schema,
		gateway:  gateway,
		logger:   logger.Named("chat"),
	}
}

var _ ChatService = (*chatService)(nil)

func (s *chatService) StartSession(ctx context.Context) (*models.ChatSession, error) {
	session, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Session started", zap.String("session_id", session.ID.String()))
	return session, nil
}

func (s *chatService) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.logger.Info("Session ended", zap.String("session_id", sessionID.String()))
	return nil
}

func (s *chatService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ChatSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *chatService) LoadDataset(ctx context.Context, sessionID uuid.UUID, dataset *models.Dataset) ([]models.ColumnDescriptor, error) {
	if dataset == nil || dataset.IsEmpty() {
		return nil, apperrors.ErrEmptyDataset
	}

	schema := s.schema.Introspect(ctx, dataset)
	if err := s.sessions.SetDataset(ctx, sessionID, dataset, schema); err != nil {
		return nil, err
	}

	opening := &models.ChatMessage{
		Role: models.ChatRoleAssistant,
		Content: fmt.Sprintf("Hi! Ask me anything about your data. I found %d rows and %d columns to explore.",
			len(dataset.Rows), len(dataset.Columns)),
		Source: models.AnswerSourceRules,
	}
	if err := s.sessions.AppendMessages(ctx, sessionID, opening); err != nil {
		return nil, err
	}

	s.logger.Info("Dataset loaded",
		zap.String("session_id", sessionID.String()),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("columns", len(dataset.Columns)))
	return schema, nil
}

func (s *chatService) History(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	return s.sessions.ListMessages(ctx, sessionID)
}

func (s *chatService) Suggestions(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return SuggestQuestions(session.Dataset, session.Schema), nil
}

func (s *chatService) Ask(ctx context.Context, sessionID uuid.UUID, question string) (*models.ChatMessage, error) {
	release, err := s.sessions.AcquireTurn(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The snapshot shares the dataset pointer; datasets are replaced
	// wholesale, so the turn reads a consistent view.
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{Role: models.ChatRoleUser, Content: question}
	if err := s.sessions.AppendMessages(ctx, sessionID, userMsg); err != nil {
		return nil, err
	}

	started := time.Now()
	answer := s.answer(ctx, session, question)

	assistantMsg := &models.ChatMessage{
		Role:    models.ChatRoleAssistant,
		Content: answer.Text,
		Chart:   answer.Chart,
		Warning: answer.Warning,
		Source:  answer.Source,
	}
	if err := s.sessions.AppendMessages(ctx, sessionID, assistantMsg); err != nil {
		return nil, err
	}

	s.logger.Info("Chat turn completed",
		zap.String("session_id", sessionID.String()),
		zap.String("question", logging.SanitizeQuestion(question)),
		zap.String("source", string(answer.Source)),
		zap.Bool("has_chart", answer.Chart != nil),
		zap.Duration("duration", time.Since(started)))
	return assistantMsg, nil
}

// answer produces the assistant's reply for one turn. It never fails:
// pipeline errors and panics render as user-facing messages so the turn
// always completes.
func (s *chatService) answer(ctx context.Context, session *models.ChatSession, question string) (answer models.Answer) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Chat turn panicked",
				zap.String("session_id", session.ID.String()),
				zap.Any("panic", r))
			answer = FormatError(fmt.Errorf("%v", r))
		}
	}()

	if !session.HasDataset() {
		return FormatEmptyDataset()
	}

	if s.gateway.Available() {
		aiAnswer, err := s.gateway.Analyze(ctx, question, session.Dataset, session.Schema)
		if err == nil {
			return aiAnswer
		}

		s.logger.Warn("AI analysis failed, answering locally",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		answer = AnswerLocally(question, session.Dataset, session.Schema)
		answer.Warning = aiFallbackWarning(err)
		return answer
	}

	return AnswerLocally(question, session.Dataset, session.Schema)
}

// AnswerLocally runs the deterministic pipeline: classify, execute, format.
// Query errors render verbatim as the answer text.
func AnswerLocally(question string, dataset *models.Dataset, schema []models.ColumnDescriptor) models.Answer {
	intent := ClassifyQuestion(question, schema, dataset)

	answer, err := runIntent(intent, dataset, schema)
	if err != nil {
		var qerr *QueryError
		if errors.As(err, &qerr) {
			return models.Answer{Text: qerr.Message, Source: models.AnswerSourceRules}
		}
		return FormatError(err)
	}
	return answer
}

// runIntent pairs each intent with its executor and formatter. Unrecognized
// kinds take the fallback path.
func runIntent(intent models.Intent, dataset *models.Dataset, schema []models.ColumnDescriptor) (models.Answer, error) {
	switch intent.Kind {
	case models.IntentGreeting:
		return FormatGreeting(schema), nil

	case models.IntentColumnDiscovery:
		return FormatColumnDiscovery(schema), nil

	case models.IntentStatusCount:
		res, err := ExecuteStatusCount(dataset, schema, intent.Status)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatStatusCount(res), nil

	case models.IntentStatusList:
		res, err := ExecuteStatusList(dataset, schema, intent.Status)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatStatusList(res), nil

	case models.IntentEntityLookup:
		res, err := ExecuteEntityLookup(dataset, schema, intent)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatEntityLookup(res), nil

	case models.IntentTopN:
		res, err := ExecuteTopN(dataset, schema, intent)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatTopN(res), nil

	case models.IntentTrendOverTime:
		res, err := ExecuteTrend(dataset, schema, intent)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatTrend(res), nil

	case models.IntentSummaryStats:
		res, err := ExecuteSummaryStats(dataset, schema, intent)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatSummary(res), nil

	case models.IntentListAll:
		res, err := ExecuteListAll(dataset, schema, intent)
		if err != nil {
			return models.Answer{}, err
		}
		return FormatListAll(res), nil

	default:
		return FormatFallback(schema), nil
	}
}

// aiFallbackWarning compresses a provider error into the short warning
// surfaced alongside a locally produced answer.
func aiFallbackWarning(err error) string {
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return fmt.Sprintf("AI analysis failed: %s... Falling back to local analysis.", msg)
}
