package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevel returns the log level from the LOG_LEVEL environment variable.
// Defaults to INFO if not set or invalid.
func GetLogLevel() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

func levelOrEnv(level string) slog.Level {
	if strings.TrimSpace(level) == "" {
		return GetLogLevel()
	}
	return parseLogLevel(level)
}

// NewLogger creates the process logger. HTTP mode logs JSON to stdout; stdio and
// CLI modes log text to stderr so stdout stays free for MCP frames and command
// output. An empty level falls back to LOG_LEVEL.
func NewLogger(isStdioMode bool, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelOrEnv(level)}

	if isStdioMode {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// NewTextLogger creates a text logger writing to output at the LOG_LEVEL level
func NewTextLogger(output io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: GetLogLevel()}))
}

// NewTestLogger creates a logger for tests. If level is empty, LOG_LEVEL is used.
func NewTestLogger(output io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: levelOrEnv(level)}))
}
