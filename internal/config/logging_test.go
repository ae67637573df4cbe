package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug lowercase", "debug", slog.LevelDebug},
		{"debug uppercase", "DEBUG", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning", "WARNING", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"empty string", "", slog.LevelInfo},
		{"invalid", "loud", slog.LevelInfo},
		{"with whitespace", " DEBUG ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	assert.Equal(t, slog.LevelWarn, GetLogLevel())

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, slog.LevelInfo, GetLogLevel())
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")

	ctx := context.Background()

	stdio := NewLogger(true, "")
	assert.True(t, stdio.Enabled(ctx, slog.LevelDebug))

	httpLogger := NewLogger(false, "error")
	assert.False(t, httpLogger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, httpLogger.Enabled(ctx, slog.LevelError))
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer

	t.Run("with explicit level", func(t *testing.T) {
		buf.Reset()
		logger := NewTestLogger(&buf, "ERROR")
		logger.Debug("debug message")
		logger.Error("error message")

		assert.NotContains(t, buf.String(), "debug message")
		assert.Contains(t, buf.String(), "error message")
	})

	t.Run("with empty level uses env", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "DEBUG")
		buf.Reset()
		logger := NewTestLogger(&buf, "")
		logger.Debug("debug message")

		assert.Contains(t, buf.String(), "debug message")
	})
}

func TestNewTextLogger_Levels(t *testing.T) {
	testCases := []struct {
		logLevel string
		messages map[string]bool
	}{
		{"DEBUG", map[string]bool{"debug": true, "info": true, "warn": true, "error": true}},
		{"INFO", map[string]bool{"debug": false, "info": true, "warn": true, "error": true}},
		{"ERROR", map[string]bool{"debug": false, "info": false, "warn": false, "error": true}},
	}

	for _, tc := range testCases {
		t.Run(tc.logLevel, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tc.logLevel)

			var buf bytes.Buffer
			logger := NewTextLogger(&buf)
			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			for level, logged := range tc.messages {
				if logged {
					assert.Contains(t, buf.String(), level+" message")
				} else {
					assert.NotContains(t, buf.String(), level+" message")
				}
			}
		})
	}
}
