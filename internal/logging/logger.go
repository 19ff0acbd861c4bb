// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// New returns a text logger writing to w and the level variable controlling it
func New(w io.Writer, level string) (*slog.Logger, *slog.LevelVar) {
	var lv slog.LevelVar
	lv.Set(ParseLevel(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &lv})), &lv
}

// Init builds a stdout logger, installs it as the default and routes the
// standard library log package through it
func Init(level string) *slog.Logger {
	logger, _ := New(os.Stdout, level)
	slog.SetDefault(logger)
	log.SetFlags(0)
	return logger
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
