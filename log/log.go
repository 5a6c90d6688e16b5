// Package log provides a leveled, structured logger for the whole node,
// backed by zerolog. It exposes package-level helpers so callers never carry
// a logger instance around.
package log

import (
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	logTestWriterName = "stdout-test"
)

var (
	logger zerolog.Logger
	level  string

	// logTestWriter can be swapped out by tests and benchmarks.
	logTestWriter io.Writer = os.Stdout

	// panicOnInvalidChars triggers a panic when a log line carries invalid
	// UTF-8, to catch unescaped binary data reaching the logs in tests.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	// a sane default so logging before Init still works
	Init(LogLevelInfo, "stderr", nil)
}

// Init initializes the global logger with the given level and output. The
// output can be "stdout", "stderr" or a file path. If errorOutput is not nil,
// messages of level error or above are duplicated to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}
	case "stderr":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		out = f
	}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errLevelWriter{errorOutput})
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	level = logLevel
	switch logLevel {
	case LogLevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		logger = logger.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		logger = logger.Level(zerolog.WarnLevel)
	case LogLevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", logLevel))
	}
}

// Level returns the level the logger was initialized with.
func Level() string { return level }

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger { return &logger }

type errLevelWriter struct{ w io.Writer }

func (w errLevelWriter) Write(p []byte) (int, error) { return w.w.Write(p) }

func (w errLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l >= zerolog.ErrorLevel {
		return w.w.Write(p)
	}
	return len(p), nil
}

func checkInvalidChars(s string) {
	if panicOnInvalidChars && !utf8.ValidString(s) {
		panic(fmt.Sprintf("log line with invalid chars: %q", s))
	}
}

func logf(ev *zerolog.Event, format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	checkInvalidChars(s)
	ev.CallerSkipFrame(2).Msg(s)
}

func logw(ev *zerolog.Event, msg string, keyvalues ...any) {
	checkInvalidChars(msg)
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvalues[i])
		}
		ev = ev.Interface(key, keyvalues[i+1])
	}
	ev.CallerSkipFrame(2).Msg(msg)
}

func Debug(args ...any)                   { logf(logger.Debug(), "%s", fmt.Sprint(args...)) }
func Debugf(format string, args ...any)   { logf(logger.Debug(), format, args...) }
func Debugw(msg string, keyvalues ...any) { logw(logger.Debug(), msg, keyvalues...) }

func Info(args ...any)                   { logf(logger.Info(), "%s", fmt.Sprint(args...)) }
func Infof(format string, args ...any)   { logf(logger.Info(), format, args...) }
func Infow(msg string, keyvalues ...any) { logw(logger.Info(), msg, keyvalues...) }

func Warn(args ...any)                   { logf(logger.Warn(), "%s", fmt.Sprint(args...)) }
func Warnf(format string, args ...any)   { logf(logger.Warn(), format, args...) }
func Warnw(msg string, keyvalues ...any) { logw(logger.Warn(), msg, keyvalues...) }

func Error(args ...any)                   { logf(logger.Error(), "%s", fmt.Sprint(args...)) }
func Errorf(format string, args ...any)   { logf(logger.Error(), format, args...) }
func Errorw(err error, msg string)        { logw(logger.Error(), msg, "error", err) }

func Fatal(args ...any) {
	logf(logger.Fatal(), "%s", fmt.Sprint(args...))
}

func Fatalf(format string, args ...any) {
	logf(logger.Fatal(), format, args...)
}
