package logger

import (
	"log/slog"
	"os"
)

// L is the package level logger used across the application.
var L = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Set replaces the default logger with the provided one.
func Set(l *slog.Logger) {
	if l != nil {
		L = l
	}
}

// Init configures the package logger from LOG_FORMAT and LOG_LEVEL.
// Format "json" selects a JSON handler.
func Init() {
	lvl := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if os.Getenv("LOG_FORMAT") == "json" {
		Set(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
		return
	}
	Set(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}
