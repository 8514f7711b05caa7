package logger

import "go.uber.org/fx"

// Module wires slog logger for dependency injection and reuses it for fx events.
var Module = fx.Options(
	fx.Provide(New),
	fx.WithLogger(NewEventLogger),
)
