package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"tvhook/internal/config"
)

// New builds the process logger: JSON to stdout and, when LOG_FILE is set,
// to a rotated file as well.
func New(cfg *config.Config) *slog.Logger {
	var writer io.Writer = os.Stdout

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err == nil {
			fileLogger := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // Megabytes
				MaxBackups: 3,
				MaxAge:     28, // Days
				Compress:   true,
			}
			writer = io.MultiWriter(os.Stdout, fileLogger)
		}
	}

	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}))
}

func ParseLevel(s string) slog.Level {
	switch s {
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
