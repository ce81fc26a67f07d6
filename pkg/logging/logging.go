// Package logging configures the process-wide zerolog logger. Logs always go
// to stderr so they never mix with a checklist written to stdout.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Config controls logger initialization.
type Config struct {
	Format string // "json", "console", or "auto"
	Level  string // "debug", "info", "warn", "error"
}

var levels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

var (
	output       *os.File = os.Stderr
	isTerminalFn          = term.IsTerminal
)

// Init configures zerolog globals and installs the resulting logger as
// log.Logger. An unknown level falls back to info with a warning.
func Init(cfg Config) zerolog.Logger {
	name := strings.ToLower(strings.TrimSpace(cfg.Level))
	level, known := levels[name]
	if !known {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	var w io.Writer = output
	if console(cfg.Format) {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger

	if !known && name != "" {
		logger.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
	}
	return logger
}

// console reports whether to write human readable lines. "auto" and unknown
// formats follow whether stderr is a terminal.
func console(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return true
	case "json":
		return false
	}
	return isTerminalFn(int(output.Fd()))
}
