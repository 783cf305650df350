package service

import (
	"fmt"

	"github.com/rl-arena/dice-backend/internal/models"
)

// QueueSet 게임 모드별 매칭 큐 묶음. 모든 큐가 하나의 ready 채널을 공유
type QueueSet struct {
	queues map[models.GameMode]*MatchmakingQueue
	modes  []models.GameMode
	ready  chan struct{}
}

// NewQueueSet 지정한 모드마다 큐 생성
func NewQueueSet(modes ...models.GameMode) *QueueSet {
	s := &QueueSet{
		queues: make(map[models.GameMode]*MatchmakingQueue, len(modes)),
		ready:  make(chan struct{}, 1),
	}
	for _, mode := range modes {
		if _, exists := s.queues[mode]; exists {
			continue
		}
		s.queues[mode] = newMatchmakingQueue(mode, s.ready)
		s.modes = append(s.modes, mode)
	}
	return s
}

// Queue 모드별 큐 조회
func (s *QueueSet) Queue(mode models.GameMode) (*MatchmakingQueue, error) {
	q, ok := s.queues[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGameMode, mode)
	}
	return q, nil
}

// All 생성 순서대로 전체 큐
func (s *QueueSet) All() []*MatchmakingQueue {
	all := make([]*MatchmakingQueue, 0, len(s.modes))
	for _, mode := range s.modes {
		all = append(all, s.queues[mode])
	}
	return all
}

// Cancel 모든 큐에서 identity 제거
func (s *QueueSet) Cancel(identity string) bool {
	removed := false
	for _, q := range s.queues {
		if q.Cancel(identity) {
			removed = true
		}
	}
	return removed
}

// Contains 어느 큐에든 대기 중인지 확인
func (s *QueueSet) Contains(identity string) bool {
	for _, q := range s.queues {
		if q.Contains(identity) {
			return true
		}
	}
	return false
}

// Sizes 모드별 대기 인원
func (s *QueueSet) Sizes() map[models.GameMode]int {
	sizes := make(map[models.GameMode]int, len(s.queues))
	for mode, q := range s.queues {
		sizes[mode] = q.Len()
	}
	return sizes
}

// Ready 어느 큐든 두 명 이상이 되면 신호
func (s *QueueSet) Ready() <-chan struct{} {
	return s.ready
}
