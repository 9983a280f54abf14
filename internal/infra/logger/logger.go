// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output    string // "stdout", "stderr", or "file"
	Level     string // "debug", "info", "warn", "error"
	File      string // log file path (used when Output is "file")
	SessionID string // attached to every entry when set
}

// OutputFor picks the log output for a UI mode. The terminal UI owns the
// screen, so it logs to a file.
func OutputFor(headless bool) string {
	if headless {
		return "stderr"
	}
	return "file"
}

// NewSessionID returns a fresh identifier for one player run.
func NewSessionID() string {
	return uuid.NewString()
}

// Init initializes the global zerolog logger with the given configuration.
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)
	output := strings.ToLower(cfg.Output)

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	var ctx zerolog.Context
	switch output {
	case "stdout", "", "stderr":
		ctx = zerolog.New(consoleWriter(output, level)).With()
	default:
		// The terminal UI owns the screen, so file output is JSON.
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrapf(err, "failed to open log file: path=%s", cfg.File)
		}
		ctx = zerolog.New(f).With()
	}

	ctx = ctx.Timestamp()
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	if cfg.SessionID != "" {
		ctx = ctx.Str("session", cfg.SessionID)
	}
	logger := ctx.Logger()

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return nil
}

func consoleWriter(output string, level zerolog.Level) zerolog.ConsoleWriter {
	var out io.Writer = os.Stdout
	if output == "stderr" {
		out = os.Stderr
	}
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	if level == zerolog.DebugLevel {
		w.PartsOrder = []string{"time", "level", "message", "caller"}
		w.FormatCaller = func(i interface{}) string {
			return "(" + i.(string) + ")"
		}
	}
	return w
}

// shortCaller keeps the last directory and file name.
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// parseLevel parses the log level string.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
