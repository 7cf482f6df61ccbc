package types

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger and log/slog wrappers.
// All methods accept alternating key-value pairs for structured fields.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and terminates the process.
	//
	// The optimizer never calls Fatal itself; contract violations are returned as errors
	// so the caller decides how to abort.
	Fatal(msg string, keysAndValues ...any)
}
