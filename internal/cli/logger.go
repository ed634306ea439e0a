package cli

import (
	"log/slog"
	"os"

	"chakravyuh-round/internal/config"
	"github.com/go-chi/httplog/v2"
)

// logger serves commands that run before a config is loaded.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// newLogger builds the request logger and sets the package logger from it.
func newLogger(cfg config.Config) *httplog.Logger {
	level := slog.LevelInfo
	if cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			logger.Warn("unknown log level, using info", "level", cfg.Log.Level)
		}
	}
	l := httplog.NewLogger("chakravyuh-round", httplog.Options{
		JSON:             !cfg.Log.Concise,
		LogLevel:         level,
		Concise:          cfg.Log.Concise,
		RequestHeaders:   false,
		MessageFieldName: "message",
	})
	logger = l.Logger
	return l
}
