package propwire

import (
	"strconv"
	"strings"
)

// step is one hop of the path from the root to the value being encoded or
// decoded. Paths are only rendered when an error needs them.
type step struct {
	parent *step
	key    string
	index  int // >= 0 for array positions, -1 for object keys
}

func rootStep() *step { return nil }

func (s *step) field(key string) *step { return &step{parent: s, key: key, index: -1} }

func (s *step) at(i int) *step { return &step{parent: s, index: i} }

func (s *step) String() string {
	var hops []*step
	for p := s; p != nil; p = p.parent {
		hops = append(hops, p)
	}
	var b strings.Builder
	b.WriteByte('$')
	for i := len(hops) - 1; i >= 0; i-- {
		h := hops[i]
		if h.index >= 0 {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(h.index))
			b.WriteByte(']')
			continue
		}
		if isIdent(h.key) {
			b.WriteByte('.')
			b.WriteString(h.key)
			continue
		}
		b.WriteByte('[')
		b.WriteString(strconv.Quote(h.key))
		b.WriteByte(']')
	}
	return b.String()
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
