package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tasker/config"
	deliverycontext "tasker/internal/delivery/context"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogOptions controls how task store statements reach slog.
type QueryLogOptions struct {
	Debug         bool          // log every statement, not only failures and slow ones
	SlowThreshold time.Duration // non-positive disables slow statement warnings
	MaxSQLLength  int           // 0 keeps statements whole
}

// QueryLogOptionsFromConfig reads the queryLog section and the debug flag.
func QueryLogOptionsFromConfig(cfg *config.Config) QueryLogOptions {
	opts := QueryLogOptions{Debug: cfg.Env.Debug}
	if cfg.QueryLog != nil {
		opts.SlowThreshold = cfg.QueryLog.SlowThreshold
		opts.MaxSQLLength = cfg.QueryLog.MaxSQLLength
	}

	return opts
}

// taskStoreLogger adapts gorm's logger.Interface to slog. Statement records carry the
// request ID of the API call or push delivery that issued them.
type taskStoreLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
	opts   QueryLogOptions
}

func newGormSlogLogger(base *slog.Logger, opts QueryLogOptions) logger.Interface {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	if base != nil {
		base = base.With(slog.String("component", "task-store"))
	}

	return &taskStoreLogger{logger: base, level: level, opts: opts}
}

func (l *taskStoreLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

func (l *taskStoreLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l *taskStoreLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l *taskStoreLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l *taskStoreLogger) printf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args []any) {
	if l.logger == nil || l.level < threshold {
		return
	}

	l.logger.LogAttrs(ctx, level, "Task store message", slog.String("message", fmt.Sprintf(msg, args...)))
}

func (l *taskStoreLogger) Trace(ctx context.Context, begin time.Time, sqlAndRowsFn func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		attrs := append(l.statementAttrs(ctx, sqlAndRowsFn, elapsed), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "Task store statement failed", attrs...)
	case l.isSlow(elapsed):
		attrs := append(l.statementAttrs(ctx, sqlAndRowsFn, elapsed), slog.Duration("slow_threshold", l.opts.SlowThreshold))
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Task store statement slow", attrs...)
	case l.level >= logger.Info:
		l.logger.LogAttrs(ctx, slog.LevelDebug, "Task store statement", l.statementAttrs(ctx, sqlAndRowsFn, elapsed)...)
	}
}

func (l *taskStoreLogger) isSlow(elapsed time.Duration) bool {
	return l.opts.SlowThreshold > 0 && elapsed > l.opts.SlowThreshold && l.level >= logger.Warn
}

func (l *taskStoreLogger) statementAttrs(ctx context.Context, sqlAndRowsFn func() (string, int64), elapsed time.Duration) []slog.Attr {
	sql, rows := sqlAndRowsFn()

	attrs := make([]slog.Attr, 0, 5)
	attrs = append(attrs,
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", truncateSQL(sql, l.opts.MaxSQLLength)),
	)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	return attrs
}

// truncateSQL bounds statements such as subtree deletes with long IN lists.
func truncateSQL(sql string, limit int) string {
	if limit <= 0 || len(sql) <= limit {
		return sql
	}

	return fmt.Sprintf("%s... (%d bytes)", sql[:limit], len(sql))
}
