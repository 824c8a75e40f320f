package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New initializes a new slog logger and sets it as the default. format is
// "json" or "text" (the default, for development); level is one of
// debug, info, warn or error.
func New(format, level string) *slog.Logger {
	logger := slog.New(Handler(os.Stdout, format, level))
	slog.SetDefault(logger)
	return logger
}

// Handler builds the handler New installs, writing to w.
func Handler(w io.Writer, format, level string) slog.Handler {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: lvl == slog.LevelDebug,
		})
	}
}
