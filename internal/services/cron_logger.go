package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes robfig/cron's own messages (skipped runs, recovered panics) to zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

func newScheduler(logger *zap.Logger) *cron.Cron {
	cl := newCronLogger(logger)
	return cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

func every(interval time.Duration) string {
	return "@every " + interval.String()
}
