// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"os"
	"strings"

	"github.com/samber/oops"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls how the process logger is built
type LoggerConfig struct {
	Level string
	Dev   bool
}

// LoggerConfigFromEnv reads LOG_LEVEL and LOG_DEV
func LoggerConfigFromEnv() LoggerConfig {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	return LoggerConfig{Level: lvl, Dev: dev}
}

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger(cfg LoggerConfig) (*zap.Logger, error) {
	if cfg.Dev {
		devConfig := zap.NewDevelopmentConfig()
		devConfig.Level = zap.NewAtomicLevelAt(levelFromString(cfg.Level))
		return devConfig.Build()
	}

	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.Level = zap.NewAtomicLevelAt(levelFromString(cfg.Level))
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return prodConfig.Build()
}

// LogError logs an error with structured context if it's an oops error.
// Plain errors are logged as-is.
func LogError(logger *zap.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		fields := []zap.Field{
			zap.String("error", oopsErr.Error()),
			zap.Any("code", oopsErr.Code()),
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			fields = append(fields, zap.Any("context", ctx))
		}
		logger.Error(msg, fields...)
		return
	}
	logger.Error(msg, zap.Error(err))
}
