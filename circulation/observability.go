package circulation

import (
	"context"
)

// Logger interface for operational logging, warnings, and error reporting.
// The engine depends only on this interface; any slog-style backend satisfies
// it. All logging call sites are nil-safe, so a logger is strictly optional.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace
// correlation. This follows the same dependency-free pattern as Logger,
// allowing integration with any backend that supports context-based
// correlation. Engines use the contextual methods when a logger implements
// both interfaces, falling back to Logger otherwise.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
