// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger once. "production" gets the JSON encoder at
// info level, "test" gets a no-op logger, everything else the console encoder.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		switch env {
		case "production":
			cfg := zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			base, err = cfg.Build()
		case "test":
			base = zap.NewNop()
		default:
			base, err = zap.NewDevelopment()
		}

		if err != nil {
			base = zap.NewNop()
		}

		Replace(base)
	})
}

// Replace swaps the global logger. Tests use it with zaptest observers.
func Replace(base *zap.Logger) {
	mu.Lock()
	sugar = base.Sugar()
	mu.Unlock()
}

// Get returns the global sugared logger, initialising a development logger
// on first use.
func Get() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s == nil {
		Init("development")
		mu.RLock()
		s = sugar
		mu.RUnlock()
	}
	return s
}

// With returns a child logger carrying the given key-value pairs.
func With(args ...interface{}) *zap.SugaredLogger {
	return Get().With(args...)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s != nil {
		_ = s.Sync()
	}
}
