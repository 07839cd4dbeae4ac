package logger

import "log/slog"

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// PrefixedLogger tags every record with the component it came from.
type PrefixedLogger struct {
	Prefix string
	// Falls back to slog.Default() when nil
	Base *slog.Logger
}

func (pl PrefixedLogger) logger() *slog.Logger {
	base := pl.Base
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", pl.Prefix)
}

func (pl PrefixedLogger) Debug(msg string, args ...any) {
	pl.logger().Debug(msg, args...)
}

func (pl PrefixedLogger) Info(msg string, args ...any) {
	pl.logger().Info(msg, args...)
}

func (pl PrefixedLogger) Error(msg string, args ...any) {
	pl.logger().Error(msg, args...)
}

var _ Logger = &PrefixedLogger{}
