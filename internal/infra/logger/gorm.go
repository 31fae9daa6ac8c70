package logger

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Gorm adapts l for gorm. Only slow queries and errors are reported; record
// not found is expected and stays silent.
func Gorm(l *zap.Logger) gormlogger.Interface {
	if l == nil {
		l = zap.NewNop()
	}
	writer := gormWriter{l.Named("gorm").WithOptions(zap.AddCallerSkip(3)).Sugar()}
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type gormWriter struct {
	s *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.s.Warnf(format, args...)
}
