package logger

import (
	"log/slog"

	"blazing_api/internal/app/port"
)

// slogAdapter implements port.Logger. A nil logger defers to the package
// globals so it follows whatever Init installed.
type slogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a port.Logger backed by the global slog logger.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

// NewDiscard returns a port.Logger that drops every record.
func NewDiscard() port.Logger {
	return &slogAdapter{logger: slog.New(slog.DiscardHandler)}
}

func (a *slogAdapter) Info(msg string, args ...any) {
	if a.logger == nil {
		Info(msg, args...)
		return
	}
	a.logger.Info(msg, args...)
}

func (a *slogAdapter) Debug(msg string, args ...any) {
	if a.logger == nil {
		Debug(msg, args...)
		return
	}
	a.logger.Debug(msg, args...)
}

func (a *slogAdapter) Warn(msg string, args ...any) {
	if a.logger == nil {
		Warn(msg, args...)
		return
	}
	a.logger.Warn(msg, args...)
}

func (a *slogAdapter) Error(msg string, args ...any) {
	if a.logger == nil {
		Error(msg, args...)
		return
	}
	a.logger.Error(msg, args...)
}

// With returns an adapter that adds args to every record.
func (a *slogAdapter) With(args ...any) port.Logger {
	base := a.logger
	if base == nil {
		ensureInitialized()
		base = globalLogger
	}
	return &slogAdapter{logger: base.With(args...)}
}
