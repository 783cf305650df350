package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMatchmakingInterval 큐 스캔 주기
const DefaultMatchmakingInterval = 5 * time.Second

// Initiator 매칭된 한 쌍을 처리 (MatchInitiator 가 구현)
type Initiator interface {
	Initiate(ctx context.Context, a, b QueueEntry) error
}

// MatchmakingScheduler 큐에서 두 명씩 꺼내 매치를 시작하는 백그라운드 루프
type MatchmakingScheduler struct {
	queues    *QueueSet
	initiator Initiator
	logger    *zap.Logger
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup // 스케줄러 루프
	inflight  sync.WaitGroup // 진행 중인 매치 시작 작업
	running   bool
	mu        sync.Mutex
}

// NewMatchmakingScheduler MatchmakingScheduler 생성
func NewMatchmakingScheduler(queues *QueueSet, initiator Initiator, interval time.Duration, logger *zap.Logger) *MatchmakingScheduler {
	if interval <= 0 {
		interval = DefaultMatchmakingInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchmakingScheduler{
		queues:    queues,
		initiator: initiator,
		logger:    logger,
		interval:  interval,
	}
}

// Start 매칭 루프 시작
func (s *MatchmakingScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopChan = stop
	s.mu.Unlock()

	s.logger.Info("Starting MatchmakingScheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.matchmakingLoop(stop)
}

// Stop 매칭 루프 중지 후 진행 중인 매치 시작 작업 대기
func (s *MatchmakingScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stopChan
	s.mu.Unlock()

	s.logger.Info("Stopping MatchmakingScheduler")
	close(stop)
	s.wg.Wait()
	s.inflight.Wait()
	s.logger.Info("MatchmakingScheduler stopped")
}

// matchmakingLoop 주기적으로, 또는 큐가 두 명 이상이 되면 즉시 매칭
func (s *MatchmakingScheduler) matchmakingLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.queues.Ready():
			s.RunOnce()
		case <-stop:
			return
		}
	}
}

// RunOnce 현재 꺼낼 수 있는 모든 쌍을 꺼내 각각 별도 goroutine 으로 시작
func (s *MatchmakingScheduler) RunOnce() int {
	matched := 0
	for _, q := range s.queues.All() {
		for {
			a, b, ok := q.ExtractPair()
			if !ok {
				break
			}
			matched++

			s.logger.Info("Matchmaking matched",
				zap.String("mode", string(q.Mode())),
				zap.String("player1", a.Identity),
				zap.String("player2", b.Identity))

			s.inflight.Add(1)
			go func(a, b QueueEntry) {
				defer s.inflight.Done()
				if err := s.initiator.Initiate(context.Background(), a, b); err != nil {
					s.logger.Warn("Match initiation did not complete",
						zap.String("player1", a.Identity),
						zap.String("player2", b.Identity),
						zap.Error(err))
				}
			}(a, b)
		}
	}

	if matched > 0 {
		s.logger.Debug("Matchmaking cycle completed", zap.Int("matches", matched))
	}
	return matched
}
