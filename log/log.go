// Package log provides the zerolog-based loggers used across the PSP.
package log

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultPerms = 0o0600

// ScopeKey is the field every PSP diagnostic line carries.
const ScopeKey = "scope"

var loggerSetTimeFormat sync.Once

// Logger extends zerolog's Logger.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a JSON logger. An empty output writes to stdout, anything
// else is treated as a file path that is appended to.
func NewLogger(level, output string) Logger {
	setTimeFormat()

	lvl := mustParseLevel(level)

	var out io.Writer = os.Stdout

	if output != "" {
		file, err := os.OpenFile(output, os.O_APPEND|os.O_WRONLY|os.O_CREATE, defaultPerms)
		if err != nil {
			panic(err)
		}

		out = file
	}

	log := zerolog.New(out).Level(lvl)

	return Logger{Logger: log.Hook(goroutineHook{}).With().Caller().Timestamp().Logger()}
}

// NewConsoleLogger creates a human-readable logger writing to w.
func NewConsoleLogger(level string, w io.Writer) Logger {
	setTimeFormat()

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	log := zerolog.New(console).Level(mustParseLevel(level))

	return Logger{Logger: log.With().Timestamp().Logger()}
}

// NewTestLogger discards everything unless a writer is given.
func NewTestLogger(w io.Writer) Logger {
	if w == nil {
		return Logger{Logger: zerolog.Nop()}
	}

	return Logger{Logger: zerolog.New(w)}
}

// Scoped returns a sub-logger tagged with the given scope.
func (l Logger) Scoped(scope string) Logger {
	return Logger{Logger: l.With().Str(ScopeKey, scope).Logger()}
}

func setTimeFormat() {
	loggerSetTimeFormat.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	})
}

func mustParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		panic(err)
	}

	return lvl
}

// GoroutineID adds goroutine-id to logs to help debug concurrency issues.
func GoroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]

	id, err := strconv.Atoi(idField)
	if err != nil {
		return -1
	}

	return id
}

type goroutineHook struct{}

func (h goroutineHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		e.Int("goroutine", GoroutineID())
	}
}
