// Package codec holds the transports that carry an encoded props tree across
// the boundary. The tree handed to a transport is generic: []any, map[string]any
// and scalars, so any general-purpose format can carry it.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Named is implemented by transports that identify themselves.
type Named interface {
	Name() string
}

// NameOf returns the transport name of c, or "custom".
func NameOf(c any) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "custom"
}
