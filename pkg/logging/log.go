// Package logging provides the application-wide debug/error log.
// Output goes to a file so it never interferes with the TUI; until
// Setup is called every log call is a no-op.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// Setup directs log output to the given file path.
func Setup(path string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes any buffered log entries. Call before exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func LogDebug(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Debugf(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Infof(format, args...)
}

func LogError(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Errorf(format, args...)
}
