package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rl-arena/dice-backend/internal/api/handlers"
	"github.com/rl-arena/dice-backend/internal/api/middleware"
	"github.com/rl-arena/dice-backend/internal/config"
	"github.com/rl-arena/dice-backend/internal/service"
	"github.com/rl-arena/dice-backend/internal/websocket"
	jwtutil "github.com/rl-arena/dice-backend/pkg/jwt"
)

// SetupRouter API 라우터 설정
// history 는 nil 이면 매치 기록 API 가 503 을 반환
func SetupRouter(cfg *config.Config, dispatcher *service.Dispatcher, hub *websocket.Hub, history handlers.MatchHistoryReader) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	jwtManager := jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	wsHandler := handlers.NewWebSocketHandler(hub)
	matchmakingHandler := handlers.NewMatchmakingHandler(dispatcher, hub)
	historyHandler := handlers.NewMatchHistoryHandler(history)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.ConnectRateLimit(), middleware.Auth(jwtManager), wsHandler.HandleWebSocket)

		matchmaking := v1.Group("/matchmaking")
		matchmaking.Use(middleware.GeneralAPIRateLimit())
		{
			matchmaking.GET("/stats", matchmakingHandler.GetStats)
		}

		arenas := v1.Group("/arenas")
		arenas.Use(middleware.Auth(jwtManager), middleware.GeneralAPIRateLimit())
		{
			arenas.GET("/:id", matchmakingHandler.GetArena)
		}

		matches := v1.Group("/matches")
		matches.Use(middleware.Auth(jwtManager), middleware.GeneralAPIRateLimit())
		{
			matches.GET("/history", historyHandler.ListHistory)
			matches.GET("/:arenaId", historyHandler.GetMatch)
		}
	}

	return router
}
