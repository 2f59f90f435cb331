// Package logging is the structured logging facade of shorsim. The
// simulator, the service layer and the HTTP server log through Logger so
// tests can swap the zerolog backend for a discarding or log.Logger based
// one.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)

	// With returns a child logger that adds fields to every entry, e.g.
	// the run ID and N of one factorisation.
	With(fields ...Field) Logger

	// Printf and Println let a Logger stand in for a *log.Logger, which
	// http.Server.ErrorLog expects.
	Printf(format string, args ...any)
	Println(args ...any)
}

// Field is one key/value pair of a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Uint64(key string, value uint64) Field { return Field{key, value} }
func Float64(key string, value float64) Field { return Field{key, value} }
func Bool(key string, value bool) Field { return Field{key, value} }
func Duration(key string, value time.Duration) Field { return Field{key, value} }

// Err stores err under the "error" key.
func Err(err error) Field { return Field{"error", err} }

// encode adds f to a zerolog event.
func (f Field) encode(e *zerolog.Event) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return e.Str(f.Key, v)
	case int:
		return e.Int(f.Key, v)
	case uint64:
		// Seeds do not fit the 53-bit integers JSON readers decode exactly.
		return e.Str(f.Key, fmt.Sprintf("%d", v))
	case float64:
		return e.Float64(f.Key, v)
	case bool:
		return e.Bool(f.Key, v)
	case time.Duration:
		return e.Dur(f.Key, v)
	case error:
		return e.AnErr(f.Key, v)
	default:
		return e.Interface(f.Key, v)
	}
}

// SetVerbosity sets the process-wide zerolog level: debug entries, such
// as the per-transform lines the engines emit, are written only when
// verbose is set.
func SetVerbosity(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// ZerologAdapter is the default Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger writes timestamped JSON lines to stderr.
func NewDefaultLogger() *ZerologAdapter {
	return NewLogger(os.Stderr, "")
}

// NewLogger writes timestamped JSON lines to w, tagged with component when
// it is not empty.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	ctx := zerolog.New(w).With().Timestamp()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	return NewZerologAdapter(ctx.Logger())
}

// NewNopLogger discards everything.
func NewNopLogger() *ZerologAdapter {
	return NewZerologAdapter(zerolog.Nop())
}

// Zerolog exposes the wrapped logger for packages that log through
// zerolog directly.
func (z *ZerologAdapter) Zerolog() zerolog.Logger {
	return z.logger
}

func (z *ZerologAdapter) write(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		e = f.encode(e)
	}
	e.Msg(msg)
}

func (z *ZerologAdapter) Info(msg string, fields ...Field) { z.write(z.logger.Info(), msg, fields) }
func (z *ZerologAdapter) Debug(msg string, fields ...Field) { z.write(z.logger.Debug(), msg, fields) }

func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	z.write(z.logger.Error().Err(err), msg, fields)
}

// With implements Logger.
func (z *ZerologAdapter) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return z
	}
	child := z.logger.Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		for _, f := range fields {
			f.encode(e)
		}
	}))
	return &ZerologAdapter{logger: child}
}

func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

func (z *ZerologAdapter) Println(args ...any) {
	z.logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// StdLoggerAdapter writes "[LEVEL] msg: err key=value ..." lines to a
// *log.Logger.
type StdLoggerAdapter struct {
	logger *stdlog.Logger
	fields []Field
}

// NewStdLoggerAdapter wraps logger.
func NewStdLoggerAdapter(logger *stdlog.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) emit(level, msg string, err error, fields []Field) {
	var b strings.Builder
	b.WriteString("[" + level + "] " + msg)
	if err != nil {
		b.WriteString(": " + err.Error())
	}
	for _, f := range append(s.fields[:len(s.fields):len(s.fields)], fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	s.logger.Println(b.String())
}

func (s *StdLoggerAdapter) Info(msg string, fields ...Field) { s.emit("INFO", msg, nil, fields) }
func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) { s.emit("DEBUG", msg, nil, fields) }

func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.emit("ERROR", msg, err, fields)
}

// With implements Logger.
func (s *StdLoggerAdapter) With(fields ...Field) Logger {
	merged := append(s.fields[:len(s.fields):len(s.fields)], fields...)
	return &StdLoggerAdapter{logger: s.logger, fields: merged}
}

func (s *StdLoggerAdapter) Printf(format string, args ...any) { s.logger.Printf(format, args...) }
func (s *StdLoggerAdapter) Println(args ...any) { s.logger.Println(args...) }
