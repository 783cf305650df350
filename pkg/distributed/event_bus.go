package distributed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rl-arena/dice-backend/internal/models"
	"go.uber.org/zap"
)

// DefaultEventChannel 매칭 이벤트 Pub/Sub 채널
const DefaultEventChannel = "matchmaking:events"

// EventBus Redis Pub/Sub 기반 매칭 이벤트 발행/구독
type EventBus struct {
	client     *redis.Client
	channel    string
	instanceID string // 이벤트를 발행한 서버 인스턴스
	logger     *zap.Logger
}

// envelope 인스턴스 ID 를 붙여 발행
type envelope struct {
	Instance string                  `json:"instance"`
	Event    models.MatchmakingEvent `json:"event"`
}

// NewEventBus EventBus 생성
func NewEventBus(client *redis.Client, channel string, logger *zap.Logger) *EventBus {
	if channel == "" {
		channel = DefaultEventChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.New().String(),
		logger:     logger,
	}
}

// Connect REDIS_URL 로 클라이언트 생성 후 연결 확인
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// InstanceID 이 서버 인스턴스의 ID
func (b *EventBus) InstanceID() string {
	return b.instanceID
}

// Publish 매칭 이벤트 발행
func (b *EventBus) Publish(ctx context.Context, event models.MatchmakingEvent) error {
	data, err := json.Marshal(envelope{Instance: b.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published matchmaking event",
		zap.String("type", string(event.Type)),
		zap.String("arenaId", event.ArenaID))

	return nil
}

// Subscribe ctx 가 끝날 때까지 이벤트 수신. ready 는 구독 확인 후 닫힘 (nil 가능)
func (b *EventBus) Subscribe(ctx context.Context, ready chan<- struct{}, handler func(instance string, event models.MatchmakingEvent) error) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// 구독 확인
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	b.logger.Info("Matchmaking event subscription started",
		zap.String("instance_id", b.instanceID),
		zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Error("Failed to unmarshal event", zap.Error(err))
				continue
			}

			if err := handler(env.Instance, env.Event); err != nil {
				b.logger.Error("Failed to handle event", zap.Error(err))
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
