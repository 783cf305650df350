package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/rl-arena/dice-backend/internal/config"
	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/pkg/distributed"
	"github.com/rl-arena/dice-backend/pkg/logger"
)

// 매칭 이벤트 채널을 구독해 로그로 출력
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	channel := flag.String("channel", cfg.EventChannel, "redis pub/sub channel")
	redisURL := flag.String("redis", cfg.RedisURL, "redis url")
	flag.Parse()

	logger.Init(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	if *redisURL == "" {
		logger.Fatal("REDIS_URL or -redis is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := distributed.Connect(ctx, *redisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer client.Close()

	bus := distributed.NewEventBus(client, *channel, logger.Named("events"))
	err = bus.Subscribe(ctx, nil, func(instance string, event models.MatchmakingEvent) error {
		logger.Info("Matchmaking event",
			"instance", instance,
			"type", event.Type,
			"mode", event.GameMode,
			"identity", event.Identity,
			"arenaId", event.ArenaID,
			"players", event.Players,
			"reason", event.Reason,
		)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Fatal("Subscription ended", "error", err)
	}
}
