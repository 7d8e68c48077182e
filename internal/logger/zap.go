// Package logger wraps a process-wide zap logger so the rest of the bridge
// can log through package-level helpers without threading a *zap.Logger
// through every constructor.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the shared logger. Callers needing zap options beyond the helpers
// below can use it directly.
var L *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	if L, err = cfg.Build(); err != nil {
		panic(fmt.Sprintf("Failed to initialize zap logger: %v", err))
	}
}

// Sync flushes buffered entries; call it once on shutdown
func Sync() {
	if err := L.Sync(); err != nil {
		L.Error("Failed to sync logger", zap.Error(err))
	}
}

// The helpers skip one caller frame so log sites report the caller, not
// this package.

func Info(msg string, fields ...zap.Field) {
	L.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	L.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}
