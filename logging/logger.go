package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// New builds a production zap logger at the given level ("debug", "info", ...).
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Init builds a logger and installs it as the global one.
func Init(level string) (*zap.Logger, error) {
	logger, err := New(level)
	if err != nil {
		return nil, err
	}
	SetLogger(logger)
	return logger, nil
}

func SetLogger(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = logger
}

// L returns the global logger, a no-op logger until Init is called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}
