package dynamize

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with dynamize-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithStrategy adds the strategy name to every record.
func (l *Logger) WithStrategy(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("strategy", name),
	}
}

// LogInsert logs one insertion and the merge it caused.
func (l *Logger) LogInsert(n int, plan string, merged int, err error) {
	if err != nil {
		l.Error("insert failed",
			"n", n,
			"plan", plan,
			"error", err,
		)
		return
	}
	l.Debug("insert completed",
		"n", n,
		"plan", plan,
		"merged", merged,
	)
}

// LogBatchInsert logs a batch insertion.
func (l *Logger) LogBatchInsert(count, merged int, err error) {
	if err != nil {
		l.Error("batch insert failed",
			"count", count,
			"error", err,
		)
		return
	}
	l.Debug("batch insert completed",
		"count", count,
		"merged", merged,
	)
}

// LogDelete logs a logical deletion.
func (l *Logger) LogDelete(live, dead int, err error) {
	if err != nil {
		l.Error("delete failed",
			"error", err,
		)
		return
	}
	l.Debug("delete completed",
		"live", live,
		"dead", dead,
	)
}

// LogRebuild logs a global rebuild.
func (l *Logger) LogRebuild(live, blocks int, reason string, err error) {
	if err != nil {
		l.Error("global rebuild failed",
			"live", live,
			"reason", reason,
			"error", err,
		)
		return
	}
	l.Info("global rebuild completed",
		"live", live,
		"blocks", blocks,
		"reason", reason,
	)
}

// LogQuery logs a query over blocks.
func (l *Logger) LogQuery(blocks int, err error) {
	if err != nil {
		l.Error("query failed",
			"blocks", blocks,
			"error", err,
		)
		return
	}
	l.Debug("query completed",
		"blocks", blocks,
	)
}
