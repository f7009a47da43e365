package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Log is the process-wide logger. It is a no-op until Initialize is
// called, so packages may log unconditionally.
var Log *zap.Logger = zap.NewNop()

// Initialize replaces Log with a real zap logger. The development
// environment gets human-readable console output, everything else JSON.
func Initialize(env string) error {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("couldn't build logger: %w", err)
	}

	Log = l
	return nil
}

// Field helpers so callers don't import zap directly.

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func Error(err error) zap.Field {
	return zap.Error(err)
}
