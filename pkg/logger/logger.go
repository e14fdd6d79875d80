package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log = slog.Default()

// Setup initializes the global logger based on the environment.
// Production gets the JSON handler, everything else the text handler.
func Setup(env string) {
	SetupWriter(env, os.Stdout)
}

// SetupWriter is Setup with an explicit destination. The CLI logs to stderr
// so rendered output on stdout stays clean.
func SetupWriter(env string, w io.Writer) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}
