package scheduler

import "log/slog"

// cronLogger routes cron's internal logging onto slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Debug("cron: "+msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
	}
}
