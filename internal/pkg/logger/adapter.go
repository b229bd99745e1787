package logger

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"wallet_network/internal/app/port"
)

// componentLogger is a port.Logger bound to a named zap logger.
type componentLogger struct {
	l *slog.Logger
}

// NewComponentLogger returns a port.Logger that tags every entry with the component name.
func NewComponentLogger(z *zap.Logger, component string) port.Logger {
	return &componentLogger{l: slog.New(zapslog.NewHandler(z.Core(), zapslog.WithName(component)))}
}

func (c *componentLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c *componentLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c *componentLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c *componentLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }
