package propwire

import (
	c "github.com/unkn0wn-root/propwire/codec"
)

// Serializer turns component props into an embeddable payload and back.
// Implementations are safe for concurrent use: every call owns its own
// ancestor set and shares no mutable state with other calls.
type Serializer interface {
	// Serialize encodes props with the configured transport.
	Serialize(props map[string]any, meta Metadata) ([]byte, error)
	// SerializeProps is Serialize for text transports.
	SerializeProps(props map[string]any, meta Metadata) (string, error)

	// Deserialize reverses Serialize. Node-level problems follow the
	// Strict setting; transport failures are always errors.
	Deserialize(payload []byte) (map[string]any, error)
	DeserializeString(text string) (map[string]any, error)

	// Transport names the wire transport, e.g. "json" or "cbor".
	Transport() string
}

// Options tune a Serializer. The zero value is valid: JSON text transport,
// lenient decoding, no depth or size limits, no logging.
type Options struct {
	Transport c.Codec[any] // nil => codec.JSON[any]{}
	Logger    Logger       // nil => NopLogger
	Hooks     Hooks        // nil => NopHooks

	// Strict makes Deserialize fail on unknown tags and malformed nodes
	// instead of decoding them as Undefined.
	Strict bool

	MaxDepth   int // container nesting limit on encode; 0 => unbounded
	MaxPayload int // bytes accepted by Deserialize; 0 => unbounded
}

func New(opts Options) (Serializer, error) {
	return newSerializer(opts)
}
