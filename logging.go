package tempo

import (
	"context"
	"log/slog"
)

// logger is tempo's internal logging facade: a thin wrapper around
// *slog.Logger that no-ops cleanly when none was configured, and checks
// Enabled before building a log line so the hot admission path pays nothing
// when logging is off.
type logger struct {
	l *slog.Logger
}

func newLogger(l *slog.Logger) *logger {
	return &logger{l: l}
}

func (lg *logger) debug(msg string, args ...any) {
	if lg == nil || lg.l == nil || !lg.l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	lg.l.Debug(msg, args...)
}

func (lg *logger) info(msg string, args ...any) {
	if lg == nil || lg.l == nil || !lg.l.Enabled(context.Background(), slog.LevelInfo) {
		return
	}
	lg.l.Info(msg, args...)
}
