// Package logging wraps a zap sugared logger shared by the batch tools and the server.
package logging

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	MessageKey:     "msg",
	CallerKey:      "caller",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger is the printf-style subset of zap.SugaredLogger used across the repo.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

var std Logger = newConsole(os.Stderr)

// newConsole colours levels only when f is a terminal.
func newConsole(f *os.File) *zap.SugaredLogger {
	enc := encoderConfig
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zap.New(
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), level),
		zap.AddCaller(),
	).Sugar()
}

// L returns the process logger.
func L() Logger { return std }

// SetLogger replaces the process logger (tests use zap.NewNop().Sugar()).
func SetLogger(l Logger) {
	if l != nil {
		std = l
	}
}

// SetLevel accepts debug, info, warn or error. Unknown values keep info.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Snippet shortens s for log lines.
func Snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
