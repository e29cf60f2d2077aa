// Package observability adapts zap, Prometheus and OpenTelemetry to the
// application ports.
package observability

import (
	"context"

	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

// LoggerAdapter adapts the logger.Logger to the port.Logger interface.
type LoggerAdapter struct {
	*logger.Logger
}

var _ port.Logger = (*LoggerAdapter)(nil)

// NewLoggerAdapter wraps l.
func NewLoggerAdapter(l *logger.Logger) *LoggerAdapter {
	return &LoggerAdapter{l}
}

// With implements port.Logger.
func (l *LoggerAdapter) With(keysAndValues ...any) port.Logger {
	return &LoggerAdapter{l.Logger.With(keysAndValues...)}
}

// WithContext implements port.Logger.
func (l *LoggerAdapter) WithContext(ctx context.Context) port.Logger {
	return &LoggerAdapter{l.Logger.WithContext(ctx)}
}
