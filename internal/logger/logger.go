package logger

import (
	"log/slog"
	"os"
)

func Load(devMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if devMode {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
