package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/propwire"
)

var _ propwire.Logger = Logger{}

// Logger adapts a logrus.Entry, so callers can pass one already carrying
// request or component fields. A zero Logger discards everything.
type Logger struct{ E *logrus.Entry }

// New wraps l with a component field naming the serializer.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "propwire")}
}

func (l Logger) Debug(msg string, f propwire.Fields) { l.log(logrus.DebugLevel, msg, f) }
func (l Logger) Info(msg string, f propwire.Fields)  { l.log(logrus.InfoLevel, msg, f) }
func (l Logger) Warn(msg string, f propwire.Fields)  { l.log(logrus.WarnLevel, msg, f) }
func (l Logger) Error(msg string, f propwire.Fields) { l.log(logrus.ErrorLevel, msg, f) }

func (l Logger) log(lvl logrus.Level, msg string, f propwire.Fields) {
	if l.E == nil || !l.E.Logger.IsLevelEnabled(lvl) {
		return
	}
	e := l.E
	if len(f) > 0 {
		e = e.WithFields(logrus.Fields(f))
	}
	e.Log(lvl, msg)
}
