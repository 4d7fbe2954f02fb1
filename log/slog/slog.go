package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	"github.com/unkn0wn-root/propwire"
)

var _ propwire.Logger = Logger{}

// Logger adapts a log/slog Logger. A zero Logger discards everything.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f propwire.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f propwire.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f propwire.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f propwire.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(lvl stdslog.Level, msg string, f propwire.Fields) {
	ctx := context.Background()
	if s.L == nil || !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f propwire.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
