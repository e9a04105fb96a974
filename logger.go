package st7735

import (
	"log/slog"

	"periph.io/x/devices/v3/st7735/internal/logging"
)

// SetLogger configures the logger for st7735 and all its sub-packages.
// By default the driver produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Records are emitted at [slog.LevelDebug]: initialization time, glyph cache
// size, rotation changes and skipped document shapes.
//
// Example:
//
//	st7735.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by st7735.
func Logger() *slog.Logger {
	return logging.Logger()
}
