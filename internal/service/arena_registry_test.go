package service

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomArenaID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{16}$`)
	for i := 0; i < 100; i++ {
		id, err := RandomArenaID()
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
	}
}

func TestArenaRegistry_CreateArena(t *testing.T) {
	registry := NewArenaRegistry()

	id, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Count())

	arena, err := registry.GetArena(id)
	require.NoError(t, err)
	assert.Equal(t, id, arena.ID)
	assert.Equal(t, models.GameModeOneVOneNormal, arena.Mode)
	assert.Equal(t, models.ArenaStatusPending, arena.Status)
	assert.False(t, arena.CreatedAt.IsZero())
}

func TestArenaRegistry_UnsupportedMode(t *testing.T) {
	registry := NewArenaRegistry()

	_, err := registry.CreateArena(models.GameMode("capture_the_flag"))
	assert.ErrorIs(t, err, ErrUnsupportedGameMode)
	assert.Equal(t, 0, registry.Count())
}

func TestArenaRegistry_CollisionRegenerates(t *testing.T) {
	ids := []string{"1111111111111111", "1111111111111111", "2222222222222222"}
	next := 0
	registry := NewArenaRegistryWithGenerator(func() (string, error) {
		id := ids[next]
		next++
		return id, nil
	})

	first, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)
	second, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)

	assert.Equal(t, "1111111111111111", first)
	assert.Equal(t, "2222222222222222", second)
	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, 3, next)
}

func TestArenaRegistry_IDExhausted(t *testing.T) {
	registry := NewArenaRegistryWithGenerator(func() (string, error) {
		return "0000000000000000", nil
	})

	_, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)

	_, err = registry.CreateArena(models.GameModeOneVOneNormal)
	assert.ErrorIs(t, err, ErrArenaIDExhausted)
	assert.Equal(t, 1, registry.Count())
}

func TestArenaRegistry_GeneratorError(t *testing.T) {
	registry := NewArenaRegistryWithGenerator(func() (string, error) {
		return "", fmt.Errorf("entropy unavailable")
	})

	_, err := registry.CreateArena(models.GameModeOneVOneNormal)
	assert.Error(t, err)
	assert.Equal(t, 0, registry.Count())
}

func TestArenaRegistry_GetReturnsCopy(t *testing.T) {
	registry := NewArenaRegistry()
	id, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)

	require.NoError(t, registry.Update(id, func(a *models.Arena) {
		a.Players = []string{"alice", "bob"}
	}))

	arena, err := registry.GetArena(id)
	require.NoError(t, err)
	arena.Players[0] = "mallory"
	arena.Status = models.ArenaStatusVoided

	stored, err := registry.GetArena(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, stored.Players)
	assert.Equal(t, models.ArenaStatusPending, stored.Status)
}

func TestArenaRegistry_UpdateKeepsID(t *testing.T) {
	registry := NewArenaRegistry()
	id, err := registry.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)

	require.NoError(t, registry.Update(id, func(a *models.Arena) {
		a.ID = "overwritten"
		a.Players = []string{"alice", "bob"}
	}))

	arena, err := registry.GetArena(id)
	require.NoError(t, err)
	assert.Equal(t, id, arena.ID)
	assert.Equal(t, []string{"alice", "bob"}, arena.Players)

	assert.ErrorIs(t, registry.Update("missing", func(*models.Arena) {}), ErrArenaNotFound)
	_, err = registry.GetArena("missing")
	assert.ErrorIs(t, err, ErrArenaNotFound)
}

func TestArenaRegistry_ConcurrentCreateUnique(t *testing.T) {
	registry := NewArenaRegistry()

	const workers = 16
	const perWorker = 50

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := registry.CreateArena(models.GameModeOneVOneNormal)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, registry.Count())
	assert.Equal(t, workers*perWorker, registry.CountByStatus()[models.ArenaStatusPending])
}
