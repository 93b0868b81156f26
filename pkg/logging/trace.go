package logging

import (
	"context"
	"log/slog"
)

// EnableTrace turns on per-tick trace output. Init sets it from the level.
var EnableTrace = false

// Trace logs at LevelTrace when tracing is on. The check is a plain bool so
// hot loops pay nothing when it is off.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		OrDefault(logger).Log(context.Background(), LevelTrace, msg, args...)
	}
}
