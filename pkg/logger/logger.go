// Package logger defines the logging surface used across the module.
// Components take a Logger and default to Noop when none is given.
package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noop struct{}

func (noop) Error(string, ...any) {}
func (noop) Warn(string, ...any)  {}
func (noop) Info(string, ...any)  {}
func (noop) Debug(string, ...any) {}

// Noop returns a Logger that discards everything.
func Noop() Logger { return noop{} }

// ZeroLogger adapts a zerolog.Logger to the Logger interface. Args are
// interpreted as alternating key/value pairs, slog style.
type ZeroLogger struct {
	logger zerolog.Logger
}

func New(w io.Writer) *ZeroLogger {
	return &ZeroLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: l}
}

func (z *ZeroLogger) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }
func (z *ZeroLogger) Warn(msg string, args ...any)  { z.emit(z.logger.Warn(), msg, args) }
func (z *ZeroLogger) Info(msg string, args ...any)  { z.emit(z.logger.Info(), msg, args) }
func (z *ZeroLogger) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

func (z *ZeroLogger) emit(ev *zerolog.Event, msg string, args []any) {
	ev.Fields(fieldMap(args)).Msg(msg)
}

func fieldMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	if len(args)%2 != 0 {
		fields["arg"] = args[len(args)-1]
	}
	return fields
}
