package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormOptions tunes SQL logging.
type GormOptions struct {
	// SlowThreshold 0 关闭
	SlowThreshold time.Duration
	// LogNotFound logs record-not-found at debug. Stock rows and catalog
	// lookups miss routinely, so it is off by default.
	LogNotFound bool
}

// GormLogger routes GORM output to the global zap logger. The logger is
// resolved per call, so SQL issued before Init or under SetForTest goes to
// whatever logger is current.
type GormLogger struct {
	level gormlogger.LogLevel
	opts  GormOptions
}

func NewGormLogger(level gormlogger.LogLevel, opts GormOptions) *GormLogger {
	return &GormLogger{level: level, opts: opts}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		FromContext(ctx).Info(fmt.Sprintf(msg, args...), zap.String("caller", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		FromContext(ctx).Warn(fmt.Sprintf(msg, args...), zap.String("caller", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		FromContext(ctx).Error(fmt.Sprintf(msg, args...), zap.String("caller", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	fields := func() []zap.Field {
		sql, rows := fc()
		out := []zap.Field{
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.String("caller", utils.FileWithLineNum()),
		}
		if rows >= 0 {
			out = append(out, zap.Int64("rows", rows))
		}
		return out
	}

	switch {
	case err != nil && errors.Is(err, gormlogger.ErrRecordNotFound):
		if l.opts.LogNotFound {
			FromContext(ctx).Debug("SQL record not found", fields()...)
		}
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		// 客户端断开或超时，不算数据库故障
		if l.level >= gormlogger.Warn {
			FromContext(ctx).Warn("SQL aborted by context", append(fields(), zap.Error(err))...)
		}
	case err != nil:
		if l.level >= gormlogger.Error {
			FromContext(ctx).Error("SQL failed", append(fields(), zap.Error(err))...)
		}
	case l.opts.SlowThreshold > 0 && elapsed > l.opts.SlowThreshold:
		if l.level >= gormlogger.Warn {
			FromContext(ctx).Warn("Slow SQL", append(fields(), zap.Duration("threshold", l.opts.SlowThreshold))...)
		}
	case l.level >= gormlogger.Info:
		FromContext(ctx).Info("SQL executed", fields()...)
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
