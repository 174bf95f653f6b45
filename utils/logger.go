package utils

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the structured logger shared by the whole service
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

// InitLogger initializes the loggers
func InitLogger(cfg LogConfig) error {
	var level zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build(zap.Fields(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	))
	if err != nil {
		return fmt.Errorf("failed to build logger: %v", err)
	}

	SetLogger(logger)
	return nil
}

// SetLogger swaps the process logger; tests use it with zap.NewNop or an observer core
func SetLogger(logger *zap.Logger) {
	Logger = logger
	sugar = logger.Sugar()
	zap.ReplaceGlobals(logger)
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Infof(format, v...)
	}
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Errorf(format, v...)
	}
}

// LogWarn logs a warning
func LogWarn(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Warnf(format, v...)
	}
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Debugf(format, v...)
	}
}

// LogRequest logs HTTP request details
func LogRequest(method, path, ip, requestID string, status int, duration time.Duration) {
	if Logger != nil {
		Logger.Info("request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("ip", ip),
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
	}
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	if Logger != nil {
		Logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
	}
}
