package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/brightctl/go-ddcci/ddc"
)

// logger adapts logrus to ddc.Logger.
type logger struct {
	entry *log.Entry
}

func newLogger(out io.Writer, debug bool) *logger {
	l := log.New()
	l.SetOutput(out)
	l.SetFormatter(&log.TextFormatter{DisableColors: true})
	l.SetLevel(log.WarnLevel)
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return &logger{entry: log.NewEntry(l)}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Info(msg)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

// event logs engine state transitions at debug level.
func (l *logger) event(ev ddc.Event) {
	fields := log.Fields{"state": ev.State.String()}
	if ev.Path != "" {
		fields["path"] = ev.Path
	}
	if ev.Attempt > 0 {
		fields["attempt"] = ev.Attempt
	}
	if ev.Err != nil {
		fields[log.ErrorKey] = ev.Err
	}
	l.entry.WithFields(fields).Debug("state")
}

func (l *logger) with(keysAndValues []interface{}) *log.Entry {
	if len(keysAndValues) == 0 {
		return l.entry
	}

	fields := make(log.Fields, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	if len(keysAndValues)%2 == 1 {
		fields["extra"] = keysAndValues[len(keysAndValues)-1]
	}
	return l.entry.WithFields(fields)
}
