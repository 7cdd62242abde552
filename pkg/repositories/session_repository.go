package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/models"
)

// SessionRepository defines the interface for chat session storage.
// Sessions live for the process lifetime; the hosting dashboard owns
// durable persistence.
type SessionRepository interface {
	// Create allocates a new session and returns it.
	Create(ctx context.Context) (*models.ChatSession, error)

	// Get returns a snapshot of the session. The returned value shares the
	// dataset with the store but owns its message and schema slices.
	Get(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)

	// Delete removes the session.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetDataset replaces the session's dataset and schema and clears the
	// transcript. Conversation context from a previous dataset does not
	// carry over.
	SetDataset(ctx context.Context, id uuid.UUID, dataset *models.Dataset, schema []models.ColumnDescriptor) error

	// AppendMessages appends messages to the transcript in order.
	AppendMessages(ctx context.Context, id uuid.UUID, messages ...*models.ChatMessage) error

	// ListMessages returns the transcript in append order.
	ListMessages(ctx context.Context, id uuid.UUID) ([]*models.ChatMessage, error)

	// AcquireTurn locks the session for a single chat turn so concurrent
	// questions on one session serialize. The returned function releases
	// the turn.
	AcquireTurn(ctx context.Context, id uuid.UUID) (func(), error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// sessionEntry pairs a session with its per-turn lock.
type sessionEntry struct {
	session *models.ChatSession
	turnMu  sync.Mutex
}

// sessionRepository implements SessionRepository with an in-memory store.
type sessionRepository struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*sessionEntry
	maxSessions int
}

// NewSessionRepository creates a new in-memory session repository.
// maxSessions caps the store; the least recently used session is evicted
// when the cap is reached. Values <= 0 fall back to 1000.
func NewSessionRepository(maxSessions int) SessionRepository {
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &sessionRepository{
		sessions:    make(map[uuid.UUID]*sessionEntry),
		maxSessions: maxSessions,
	}
}

var _ SessionRepository = (*sessionRepository)(nil)

func (r *sessionRepository) Create(ctx context.Context) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.maxSessions {
		r.evictLRU()
	}

	now := time.Now()
	session := &models.ChatSession{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[session.ID] = &sessionEntry{session: session}

	return snapshot(session), nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return snapshot(entry.session), nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepository) SetDataset(ctx context.Context, id uuid.UUID, dataset *models.Dataset, schema []models.ColumnDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	entry.session.Dataset = dataset
	entry.session.Schema = append([]models.ColumnDescriptor(nil), schema...)
	entry.session.Messages = nil
	entry.session.UpdatedAt = time.Now()
	return nil
}

func (r *sessionRepository) AppendMessages(ctx context.Context, id uuid.UUID, messages ...*models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	now := time.Now()
	for _, msg := range messages {
		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		msg.SessionID = id
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		entry.session.Messages = append(entry.session.Messages, msg)
	}
	entry.session.UpdatedAt = now
	return nil
}

func (r *sessionRepository) ListMessages(ctx context.Context, id uuid.UUID) ([]*models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return append([]*models.ChatMessage(nil), entry.session.Messages...), nil
}

func (r *sessionRepository) AcquireTurn(ctx context.Context, id uuid.UUID) (func(), error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}

	entry.turnMu.Lock()
	return entry.turnMu.Unlock, nil
}

func (r *sessionRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evictLRU removes the least recently updated session. Caller holds mu.
func (r *sessionRepository) evictLRU() {
	var oldestID uuid.UUID
	var oldestTime time.Time
	found := false

	for id, entry := range r.sessions {
		if !found || entry.session.UpdatedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = entry.session.UpdatedAt
			found = true
		}
	}

	if found {
		delete(r.sessions, oldestID)
	}
}

// snapshot copies the session so callers can read it without holding the
// store lock. The dataset pointer is shared; datasets are replaced wholesale
// and never mutated in place.
func snapshot(s *models.ChatSession) *models.ChatSession {
	copied := *s
	copied.Schema = append([]models.ColumnDescriptor(nil), s.Schema...)
	copied.Messages = append([]*models.ChatMessage(nil), s.Messages...)
	return &copied
}
