package net

import "github.com/decred/slog"

var log slog.Logger = slog.Disabled

// UseLogger directs this package's log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}
