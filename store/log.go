package store

import "github.com/decred/slog"

// log is the package-level logger, disabled until UseLogger is called by
// whatever assembles the root logger (out of scope for this module).
var log slog.Logger = slog.Disabled

// UseLogger directs this package's log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}
