package zerolog

import (
	"github.com/rs/zerolog"
	"github.com/unkn0wn-root/propwire"
)

var _ propwire.Logger = Logger{}

// Logger adapts a zerolog.Logger. Fields are attached with Fields(), which
// keeps their value types in the JSON output.
type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f propwire.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f propwire.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f propwire.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f propwire.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
