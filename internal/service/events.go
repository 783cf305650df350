package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rl-arena/dice-backend/internal/models"
	"go.uber.org/zap"
)

// EventPublisher 매칭 이벤트 발행 (distributed.EventBus 가 구현)
type EventPublisher interface {
	Publish(ctx context.Context, event models.MatchmakingEvent) error
}

// MatchRecorder 성사/취소된 매치 기록 (repository.MatchHistoryRepository 가 구현)
type MatchRecorder interface {
	RecordMatch(ctx context.Context, record models.MatchRecord) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.MatchmakingEvent) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordMatch(context.Context, models.MatchRecord) error { return nil }

// 이벤트 발행 실패는 매칭 흐름을 막지 않는다
func publish(ctx context.Context, events EventPublisher, logger *zap.Logger, event models.MatchmakingEvent) {
	event.ID = uuid.New().String()
	event.Timestamp = time.Now()

	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish matchmaking event",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
