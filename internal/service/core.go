package service

import (
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
	"go.uber.org/zap"
)

// CoreConfig Core 구성 요소 설정
type CoreConfig struct {
	Modes        []models.GameMode // 비어 있으면 models.SupportedGameModes()
	Interval     time.Duration
	ReadyTimeout time.Duration
	Events       EventPublisher
	Recorder     MatchRecorder
	Logger       *zap.Logger
}

// Core 프로세스 전체에서 공유하는 매칭 상태. 시작 시 한 번 생성
type Core struct {
	Sessions   *SessionRegistry
	Queues     *QueueSet
	Arenas     *ArenaRegistry
	Initiator  *MatchInitiator
	Scheduler  *MatchmakingScheduler
	Dispatcher *Dispatcher
}

// NewCore 레지스트리, 큐, 스케줄러, 디스패처 생성
func NewCore(cfg CoreConfig) *Core {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	modes := cfg.Modes
	if len(modes) == 0 {
		modes = models.SupportedGameModes()
	}

	sessions := NewSessionRegistry()
	queues := NewQueueSet(modes...)
	arenas := NewArenaRegistry()
	initiator := NewMatchInitiator(arenas, sessions, queues, cfg.Events, cfg.Recorder, cfg.ReadyTimeout, logger.Named("initiator"))

	return &Core{
		Sessions:   sessions,
		Queues:     queues,
		Arenas:     arenas,
		Initiator:  initiator,
		Scheduler:  NewMatchmakingScheduler(queues, initiator, cfg.Interval, logger.Named("scheduler")),
		Dispatcher: NewDispatcher(sessions, queues, arenas, initiator, cfg.Events, logger.Named("dispatcher")),
	}
}

// Start 스케줄러 시작
func (c *Core) Start() {
	c.Scheduler.Start()
}

// Stop 스케줄러 중지
func (c *Core) Stop() {
	c.Scheduler.Stop()
}
