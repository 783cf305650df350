package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
)

const (
	arenaIDAlphabet = "0123456789"
	arenaIDLength   = 16
	// 충돌 시 재생성 횟수 (10^16 공간에서는 사실상 도달하지 않음)
	arenaIDMaxAttempts = 8
)

// IDGenerator 아레나 ID 생성 함수
type IDGenerator func() (string, error)

// ArenaRegistry 진행 중인 아레나 관리
type ArenaRegistry struct {
	arenas map[string]models.Arena
	mu     sync.RWMutex
	newID  IDGenerator
	now    func() time.Time
}

// NewArenaRegistry ArenaRegistry 생성
func NewArenaRegistry() *ArenaRegistry {
	return &ArenaRegistry{
		arenas: make(map[string]models.Arena),
		newID:  RandomArenaID,
		now:    time.Now,
	}
}

// NewArenaRegistryWithGenerator ID 생성기를 지정한 ArenaRegistry 생성
func NewArenaRegistryWithGenerator(gen IDGenerator) *ArenaRegistry {
	r := NewArenaRegistry()
	r.newID = gen
	return r
}

// CreateArena 새 아레나를 pending 상태로 등록하고 ID 반환
func (r *ArenaRegistry) CreateArena(mode models.GameMode) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGameMode, mode)
	}

	for attempt := 0; attempt < arenaIDMaxAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate arena id: %w", err)
		}

		r.mu.Lock()
		if _, exists := r.arenas[id]; exists {
			r.mu.Unlock()
			continue
		}
		r.arenas[id] = models.Arena{
			ID:        id,
			Mode:      mode,
			Status:    models.ArenaStatusPending,
			CreatedAt: r.now(),
		}
		r.mu.Unlock()

		return id, nil
	}

	return "", ErrArenaIDExhausted
}

// GetArena 아레나 상태 복사본 조회
func (r *ArenaRegistry) GetArena(id string) (models.Arena, error) {
	r.mu.RLock()
	arena, exists := r.arenas[id]
	r.mu.RUnlock()

	if !exists {
		return models.Arena{}, fmt.Errorf("%w: %s", ErrArenaNotFound, id)
	}

	return arena.Clone(), nil
}

// Update 쓰기 락 안에서 복사본을 수정한 뒤 다시 저장
func (r *ArenaRegistry) Update(id string, fn func(*models.Arena)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	arena, exists := r.arenas[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrArenaNotFound, id)
	}

	arena = arena.Clone()
	fn(&arena)
	arena.ID = id
	r.arenas[id] = arena

	return nil
}

// Count 등록된 아레나 수
func (r *ArenaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arenas)
}

// CountByStatus 상태별 아레나 수
func (r *ArenaRegistry) CountByStatus() map[models.ArenaStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.ArenaStatus]int)
	for _, arena := range r.arenas {
		counts[arena.Status]++
	}
	return counts
}

// RandomArenaID 0-9 숫자 16자리 ID 생성
func RandomArenaID() (string, error) {
	max := big.NewInt(int64(len(arenaIDAlphabet)))
	buf := make([]byte, arenaIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = arenaIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}
