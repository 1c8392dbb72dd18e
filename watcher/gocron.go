package watcher

import (
	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// gocronLogger forwards scheduler logs to logrus.
type gocronLogger struct {
	log log.FieldLogger
}

func newGocronLogger(logger log.FieldLogger) gocron.Logger {
	return &gocronLogger{log: logger.WithField("component", "scheduler")}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.entry(args).Debug(msg) }

func (l *gocronLogger) Error(msg string, args ...any) { l.entry(args).Error(msg) }

func (l *gocronLogger) Info(msg string, args ...any) { l.entry(args).Info(msg) }

func (l *gocronLogger) Warn(msg string, args ...any) { l.entry(args).Warn(msg) }

// entry turns gocron's alternating key/value args into logrus fields.
func (l *gocronLogger) entry(args []any) log.FieldLogger {
	fields := log.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return l.log.WithFields(fields)
}
