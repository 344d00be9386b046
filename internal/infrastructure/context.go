package infrastructure

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// MaxTraceIDLength bounds caller-supplied trace IDs. Longer values are
// replaced.
const MaxTraceIDLength = 128

// GenerateTraceID returns a random UUID v4 string.
func GenerateTraceID() string {
	return uuid.NewString()
}

// EnsureTraceID stores id as the context trace ID and returns the ID stored.
// A blank or oversized id is replaced by a generated one.
func EnsureTraceID(ctx context.Context, id string) (context.Context, string) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxTraceIDLength {
		id = GenerateTraceID()
	}
	return WithTraceID(ctx, id), id
}

// WithComponent tags every record of logger with the component name. A nil
// logger uses slog.Default.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}
