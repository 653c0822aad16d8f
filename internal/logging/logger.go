package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the bootstrap JSON logger on stdout. The auth-log database
// sink is attached later, once the connection exists, by rebuilding the
// default logger with NewMultiHandler.
func Setup() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(),
	})))
}

// Level reads LOG_LEVEL (debug, info, warn, error), defaulting to info.
func Level() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
