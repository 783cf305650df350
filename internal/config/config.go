package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database (비어 있으면 매치 기록 비활성화)
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Redis (비어 있으면 이벤트 발행 비활성화)
	RedisURL     string
	EventChannel string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS / WebSocket origin
	CORSAllowedOrigins []string

	// Matchmaking
	MatchmakingInterval time.Duration
	ReadyTimeout        time.Duration

	// WebSocket
	WSMessageRate int64
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "25560"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:      int(parseInt(getEnv("DB_MAX_OPEN_CONNS", "10"), 10)),
		DBMaxIdleConns:      int(parseInt(getEnv("DB_MAX_IDLE_CONNS", "2"), 2)),
		RedisURL:            getEnv("REDIS_URL", ""),
		EventChannel:        getEnv("EVENT_CHANNEL", "matchmaking:events"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:       parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		MatchmakingInterval: parseDuration(getEnv("MATCHMAKING_INTERVAL", "5s"), 5*time.Second),
		ReadyTimeout:        parseDuration(getEnv("READY_TIMEOUT", "30s"), 30*time.Second),
		WSMessageRate:       parseInt(getEnv("WS_MESSAGE_RATE", "20"), 20),
		CORSAllowedOrigins:  parseList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
