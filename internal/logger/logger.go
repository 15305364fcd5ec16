// Package logger wraps zerolog behind the small interface the stack
// processor logs through.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used by the stack processor and the CLI.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component, message string, err error, fields map[string]interface{})
	With(key string, value interface{}) Logger
}

// ZerologAdapter implements Logger on top of a zerolog.Logger.
type ZerologAdapter struct {
	zl zerolog.Logger
}

// New returns a JSON lines logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) *ZerologAdapter {
	return &ZerologAdapter{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewConsole returns a human readable logger on stderr.
func NewConsole(level zerolog.Level) *ZerologAdapter {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

// Nop discards everything.
func Nop() *ZerologAdapter {
	return &ZerologAdapter{zl: zerolog.Nop()}
}

// With returns a child logger that adds key=value to every event.
func (z *ZerologAdapter) With(key string, value interface{}) Logger {
	return &ZerologAdapter{zl: z.zl.With().Interface(key, value).Logger()}
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	emit(z.zl.Debug(), component, message, fields)
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	emit(z.zl.Info(), component, message, fields)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	emit(z.zl.Warn(), component, message, fields)
}

// Error logs message at error level with err under the "error" key.
func (z *ZerologAdapter) Error(component, message string, err error, fields map[string]interface{}) {
	emit(z.zl.Error().Err(err), component, message, fields)
}

// emit is a no-op for events below the logger level, where e is nil.
func emit(e *zerolog.Event, component, message string, fields map[string]interface{}) {
	if e == nil {
		return
	}
	e.Str("component", component).Fields(fields).Msg(message)
}
