package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlytics/insight-engine/pkg/apperrors"
	"github.com/dashlytics/insight-engine/pkg/models"
)

func testDataset() *models.Dataset {
	return &models.Dataset{
		Columns: []string{"Project", "Status"},
		Rows: []models.Row{
			{"Project": "Alpha", "Status": "Red"},
			{"Project": "Beta", "Status": "Green"},
		},
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, session.ID)
	assert.False(t, session.HasDataset())

	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, 1, repo.Count(ctx))
}

func TestSessionRepository_GetMissing(t *testing.T) {
	repo := NewSessionRepository(10)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, session.ID))
	assert.Equal(t, 0, repo.Count(ctx))

	assert.ErrorIs(t, repo.Delete(ctx, session.ID), apperrors.ErrSessionNotFound)
}

func TestSessionRepository_SetDatasetResetsTranscript(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessages(ctx, session.ID, &models.ChatMessage{
		Role:    models.ChatRoleUser,
		Content: "hello",
	}))

	schema := []models.ColumnDescriptor{
		{Name: "Project", Role: models.ColumnRoleCategorical},
		{Name: "Status", Role: models.ColumnRoleCategorical},
	}
	require.NoError(t, repo.SetDataset(ctx, session.ID, testDataset(), schema))

	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDataset())
	assert.Len(t, got.Schema, 2)
	assert.Empty(t, got.Messages, "replacing the dataset should clear the transcript")
}

func TestSessionRepository_AppendMessagesStampsFields(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	user := &models.ChatMessage{Role: models.ChatRoleUser, Content: "How many projects are red?"}
	assistant := &models.ChatMessage{Role: models.ChatRoleAssistant, Content: "Found 1 projects with Red status."}
	require.NoError(t, repo.AppendMessages(ctx, session.ID, user, assistant))

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	for _, msg := range messages {
		assert.NotEqual(t, uuid.Nil, msg.ID)
		assert.Equal(t, session.ID, msg.SessionID)
		assert.False(t, msg.CreatedAt.IsZero())
	}
	assert.True(t, messages[0].IsFromUser())
	assert.True(t, messages[1].IsFromAssistant())
}

func TestSessionRepository_SnapshotIsolation(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	first, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessages(ctx, session.ID, &models.ChatMessage{
		Role:    models.ChatRoleUser,
		Content: "hello",
	}))

	// The earlier snapshot does not see later appends
	assert.Empty(t, first.Messages)
}

func TestSessionRepository_AcquireTurnSerializes(t *testing.T) {
	repo := NewSessionRepository(10)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	release, err := repo.AcquireTurn(ctx, session.ID)
	require.NoError(t, err)

	wg.Add(1)
	go func() {
		defer wg.Done()
		unlock, err := repo.AcquireTurn(ctx, session.ID)
		if err != nil {
			t.Errorf("AcquireTurn: %v", err)
			return
		}
		defer unlock()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	release()

	wg.Wait()
	assert.Equal(t, []int{1, 2}, order)
}

func TestSessionRepository_AcquireTurnMissing(t *testing.T) {
	repo := NewSessionRepository(10)

	_, err := repo.AcquireTurn(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionRepository_EvictsLRUAtCapacity(t *testing.T) {
	repo := NewSessionRepository(2)
	ctx := context.Background()

	first, err := repo.Create(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.Create(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	// Touch the first session so the second becomes least recently used
	require.NoError(t, repo.AppendMessages(ctx, first.ID, &models.ChatMessage{
		Role:    models.ChatRoleUser,
		Content: "keep me warm",
	}))

	third, err := repo.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.Count(ctx))
	_, err = repo.Get(ctx, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound, "oldest session should be evicted")
	_, err = repo.Get(ctx, first.ID)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, third.ID)
	assert.NoError(t, err)
}
