package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "dice-backend"

var (
	base = zap.NewNop()
	log  = base.Sugar()
)

// Init 로거 초기화. production 은 JSON, 그 외는 콘솔 출력
// 알 수 없는 level 은 info
func Init(level, env string) {
	zapConfig := zap.NewDevelopmentConfig()
	if env == "production" {
		zapConfig = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     env,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}

	replace(logger)
}

// Named 컴포넌트별 *zap.Logger (service, dispatcher, websocket ...)
func Named(name string) *zap.Logger {
	return base.Named(name)
}

func replace(logger *zap.Logger) {
	base = logger
	log = logger.Sugar()
}

// Sync 로거 플러시
func Sync() {
	_ = base.Sync()
}

func Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

// Fatal 로그 후 프로그램 종료
func Fatal(msg string, keysAndValues ...interface{}) {
	log.Fatalw(msg, keysAndValues...)
}
