// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/httplog/v3"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
)

const appName = "hris-attendance-engine"

// Version is overridden at build time with -ldflags.
var Version = "v1.0.0"

// New returns a JSON logger using ECS field names so application logs and
// request logs share one schema.
func New(cfg config.AppConfig) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg)
}

func NewWithWriter(w io.Writer, cfg config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.Env == "development")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(cfg.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("env", cfg.Env),
	)
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
