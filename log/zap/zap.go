package zap

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/propwire"
)

var _ propwire.Logger = Logger{}

// Logger adapts a zap.Logger. Fields are only built for entries that pass the
// level check. A zero Logger discards everything.
type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f propwire.Fields) { z.log(zapcore.DebugLevel, msg, f) }
func (z Logger) Info(msg string, f propwire.Fields)  { z.log(zapcore.InfoLevel, msg, f) }
func (z Logger) Warn(msg string, f propwire.Fields)  { z.log(zapcore.WarnLevel, msg, f) }
func (z Logger) Error(msg string, f propwire.Fields) { z.log(zapcore.ErrorLevel, msg, f) }

func (z Logger) log(lvl zapcore.Level, msg string, f propwire.Fields) {
	if z.L == nil {
		return
	}
	if ce := z.L.Check(lvl, msg); ce != nil {
		ce.Write(fields(f)...)
	}
}

// fields sorts by key so payload paths and sizes print in a stable order.
func fields(f propwire.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
