package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rl-arena/dice-backend/internal/api"
	"github.com/rl-arena/dice-backend/internal/api/handlers"
	"github.com/rl-arena/dice-backend/internal/config"
	"github.com/rl-arena/dice-backend/internal/repository"
	"github.com/rl-arena/dice-backend/internal/service"
	"github.com/rl-arena/dice-backend/internal/websocket"
	"github.com/rl-arena/dice-backend/pkg/database"
	"github.com/rl-arena/dice-backend/pkg/distributed"
	"github.com/rl-arena/dice-backend/pkg/logger"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 로거 초기화
	logger.Init(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	logger.Info("Starting dice backend",
		"port", cfg.Port,
		"env", cfg.Env,
		"matchmakingInterval", cfg.MatchmakingInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coreCfg := service.CoreConfig{
		Interval:     cfg.MatchmakingInterval,
		ReadyTimeout: cfg.ReadyTimeout,
		Logger:       logger.Named("matchmaking"),
	}

	// 매치 기록 (선택)
	var historyReader handlers.MatchHistoryReader
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()

		history := repository.NewMatchHistoryRepository(db)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare match history schema", "error", err)
		}
		coreCfg.Recorder = history
		historyReader = history
		logger.Info("Match history recording enabled")
	}

	// 매칭 이벤트 발행 (선택)
	if cfg.RedisURL != "" {
		client, err := distributed.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer client.Close()

		bus := distributed.NewEventBus(client, cfg.EventChannel, logger.Named("events"))
		coreCfg.Events = bus
		logger.Info("Matchmaking events enabled", "channel", cfg.EventChannel, "instance", bus.InstanceID())
	}

	core := service.NewCore(coreCfg)
	core.Start()

	hub := websocket.NewHub(core.Dispatcher, websocket.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MessageRate:    cfg.WSMessageRate,
	}, logger.Named("websocket"))

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	router := api.SetupRouter(cfg, core.Dispatcher, hub, historyReader)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 업그레이드된 WebSocket 연결은 Shutdown 대상이 아니므로 Hub 를 먼저 닫는다
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	core.Stop()

	logger.Info("Server exited")
}
