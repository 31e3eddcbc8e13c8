// Package logging builds the zap logger shared by the engine components.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the settings for New.
type Config struct {
	// Environment is "development" (console encoding, debug stack traces) or anything else (json).
	Environment string
	// Level is a zap level name ("debug", "info", "warn", "error").
	Level string
	// Name is attached to every entry as the "app" field.
	Name string
}

// New creates a logger for the given configuration.
//
// Parameters:
//   - cfg: environment, level, and application name
//
// Returns:
//   - *zap.Logger: the configured logger
//   - error: an error if the level is unknown or the logger cannot be built
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	development := cfg.Environment == "" || cfg.Environment == "development"

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoding := "json"
	if development {
		encoding = "console"
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.Name != "" {
		logger = logger.With(zap.String("app", cfg.Name))
	}
	return logger, nil
}

// ParseLevel maps a level name to a zapcore.Level. An empty name is "info".
//
// Parameters:
//   - name: case-insensitive level name
//
// Returns:
//   - zapcore.Level: the parsed level
//   - error: an error if the name is not a zap level
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return level, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
