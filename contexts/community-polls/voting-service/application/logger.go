package application

import "log/slog"

// Module is the value of the "module" attribute on every log line this
// service emits.
const Module = "community-polls/voting-service"

// ResolveLogger returns slog.Default when no logger was injected.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
