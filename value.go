package propwire

import "reflect"

// UndefinedType is the type of Undefined. It is distinct from nil (null):
// an undefined prop round-trips to Undefined, never to nil.
type UndefinedType struct{}

// Undefined marks a prop that is present but has no value.
var Undefined = UndefinedType{}

func (UndefinedType) String() string { return "undefined" }

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)
	return ok
}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   any
	Value any
}

// Map is an insertion-ordered map with arbitrary keys. Keys of comparable
// types match by value; slices, maps and other non-comparable keys match by
// identity. Empty slices have no identity and never match, not even
// themselves. The zero value is an empty map ready to use.
type Map struct {
	entries []Entry
	pos     map[any]int // hashable keys only
}

// NewMap builds a Map from pairs, in order. A repeated key keeps its first
// position and takes the last value.
func NewMap(pairs ...Entry) *Map {
	m := &Map{entries: make([]Entry, 0, len(pairs))}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Map) index(key any) int {
	if hashable(key) {
		if i, ok := m.pos[key]; ok {
			return i
		}
		return -1
	}
	for i := range m.entries {
		if sameValue(m.entries[i].Key, key) {
			return i
		}
	}
	return -1
}

// push appends a pair without looking for an existing key. Decoded entries
// are already unique on the wire.
func (m *Map) push(key, value any) {
	if hashable(key) {
		if m.pos == nil {
			m.pos = make(map[any]int)
		}
		if _, dup := m.pos[key]; !dup {
			m.pos[key] = len(m.entries)
		}
	}
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Set inserts or replaces the value for key.
func (m *Map) Set(key, value any) {
	if i := m.index(key); i >= 0 {
		m.entries[i].Value = value
		return
	}
	if hashable(key) {
		if m.pos == nil {
			m.pos = make(map[any]int)
		}
		m.pos[key] = len(m.entries)
	}
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	if i := m.index(key); i >= 0 {
		return m.entries[i].Value, true
	}
	return nil, false
}

func (m *Map) Has(key any) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	if m == nil {
		return false
	}
	i := m.index(key)
	if i < 0 {
		return false
	}
	if hashable(key) {
		delete(m.pos, key)
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for j := i; j < len(m.entries); j++ {
		if k := m.entries[j].Key; hashable(k) {
			m.pos[k] = j
		}
	}
	return true
}

// Entries returns a copy of the pairs in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Range calls fn for every pair in order until fn returns false.
func (m *Map) Range(fn func(key, value any) bool) {
	if m == nil {
		return
	}
	for _, e := range m.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// Set is an insertion-ordered collection of unique values, using the same
// equality rule as Map keys. The zero value is an empty set ready to use.
type Set struct {
	items []any
	pos   map[any]int // hashable values only
}

// NewSet builds a Set from values, dropping repeats.
func NewSet(values ...any) *Set {
	s := &Set{items: make([]any, 0, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Set) index(v any) int {
	if hashable(v) {
		if i, ok := s.pos[v]; ok {
			return i
		}
		return -1
	}
	for i := range s.items {
		if sameValue(s.items[i], v) {
			return i
		}
	}
	return -1
}

// push appends v without looking for an existing element.
func (s *Set) push(v any) {
	if hashable(v) {
		if s.pos == nil {
			s.pos = make(map[any]int)
		}
		if _, dup := s.pos[v]; !dup {
			s.pos[v] = len(s.items)
		}
	}
	s.items = append(s.items, v)
}

// Add inserts v unless already present and reports whether it was added.
func (s *Set) Add(v any) bool {
	if s.index(v) >= 0 {
		return false
	}
	if hashable(v) {
		if s.pos == nil {
			s.pos = make(map[any]int)
		}
		s.pos[v] = len(s.items)
	}
	s.items = append(s.items, v)
	return true
}

func (s *Set) Has(v any) bool {
	return s != nil && s.index(v) >= 0
}

func (s *Set) Delete(v any) bool {
	if s == nil {
		return false
	}
	i := s.index(v)
	if i < 0 {
		return false
	}
	if hashable(v) {
		delete(s.pos, v)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		if x := s.items[j]; hashable(x) {
			s.pos[x] = j
		}
	}
	return true
}

// Values returns a copy of the elements in insertion order.
func (s *Set) Values() []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// hashable reports whether v can be looked up by ==. NaN cannot: it never
// equals itself, so it takes the linear path through sameValue.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && f != f {
		return false
	}
	return reflect.ValueOf(v).Comparable()
}

// sameValue is the key equality used by Map and Set.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() {
		if f, ok := a.(float64); ok && f != f {
			// NaN keys match each other
			g := b.(float64)
			return g != g
		}
		return a == b
	}
	ka, okA := identityOf(va)
	kb, okB := identityOf(vb)
	return okA && okB && ka == kb
}
