package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMatchHistory(t *testing.T) *MatchHistoryRepository {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, url, database.PoolOptions{MaxOpenConns: 2})
	if err != nil {
		t.Skip("Postgres not available:", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewMatchHistoryRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestMatchHistoryRepository_RecordAndFind(t *testing.T) {
	repo := setupMatchHistory(t)
	ctx := context.Background()

	arenaID := fmt.Sprintf("%016d", time.Now().UnixNano()%1e16)
	record := models.MatchRecord{
		ArenaID:   arenaID,
		GameMode:  models.GameModeOneVOneNormal,
		Player1ID: "alice",
		Player2ID: "bob",
		Status:    models.ArenaStatusStarted,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.RecordMatch(ctx, record))

	found, err := repo.FindByArenaID(ctx, arenaID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.Player1ID)
	assert.Equal(t, models.ArenaStatusStarted, found.Status)
	assert.Nil(t, found.Reason)

	// 같은 아레나 재기록 시 상태 갱신
	reason := "bob: ready timeout"
	record.Status = models.ArenaStatusVoided
	record.Reason = &reason
	require.NoError(t, repo.RecordMatch(ctx, record))

	found, err = repo.FindByArenaID(ctx, arenaID)
	require.NoError(t, err)
	assert.Equal(t, models.ArenaStatusVoided, found.Status)
	require.NotNil(t, found.Reason)
	assert.Equal(t, reason, *found.Reason)

	records, err := repo.ListByPlayer(ctx, "bob", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, records)
}

func TestMatchHistoryRepository_FindMissing(t *testing.T) {
	repo := setupMatchHistory(t)

	found, err := repo.FindByArenaID(context.Background(), "0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, found)
}
