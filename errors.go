package propwire

import (
	"errors"
	"fmt"

	c "github.com/unkn0wn-root/propwire/codec"
)

var (
	ErrCyclicReference = errors.New("propwire: cyclic reference")
	ErrUnsupportedType = errors.New("propwire: unsupported type")
	ErrUnknownTag      = errors.New("propwire: unknown tag")
	ErrMalformedNode   = errors.New("propwire: malformed node")
	ErrMaxDepth        = errors.New("propwire: max depth exceeded")
	ErrNotObject       = errors.New("propwire: payload is not an object")

	// ErrPayloadTooLarge is returned by Deserialize when MaxPayload is exceeded.
	ErrPayloadTooLarge = c.ErrPayloadTooLarge
)

// Metadata describes the component whose props are being serialized.
// It is used only to make error messages diagnosable.
type Metadata struct {
	DisplayName string // component display name, e.g. "Counter"
	Hydrate     string // hydration directive, e.g. "load", "idle", "visible"
}

func (m Metadata) String() string {
	return fmt.Sprintf("<%s client:%s>", m.DisplayName, m.Hydrate)
}

// CyclicReferenceError reports a container that is its own ancestor.
type CyclicReferenceError struct {
	Meta Metadata
	Path string // path of the container that closed the cycle, e.g. "$.a.b"
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference detected while serializing props for %s at %s: "+
		"cyclic references cannot be safely serialized for client-side usage, remove the cyclic reference",
		e.Meta, e.Path)
}

func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }

// UnsupportedTypeError reports a value with no wire representation
// (functions, channels, structs, complex numbers, ...).
type UnsupportedTypeError struct {
	Meta Metadata
	Path string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot serialize %s at %s in props for %s", e.Type, e.Path, e.Meta)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// UnknownTagError is returned by a strict decoder for a node whose tag is
// not in the registry. Lenient decoders turn such nodes into Undefined.
type UnknownTagError struct {
	Path string
	Raw  any
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown tag %v at %s", e.Raw, e.Path)
}

func (e *UnknownTagError) Unwrap() error { return ErrUnknownTag }

// MalformedNodeError is returned by a strict decoder for a node whose shape
// or payload does not match its tag.
type MalformedNodeError struct {
	Path   string
	Tag    Tag
	Reason string
}

func (e *MalformedNodeError) Error() string {
	switch {
	case e.Reason == "":
		return fmt.Sprintf("malformed %s node at %s", e.Tag, e.Path)
	default:
		return fmt.Sprintf("malformed %s node at %s: %s", e.Tag, e.Path, e.Reason)
	}
}

func (e *MalformedNodeError) Unwrap() error { return ErrMalformedNode }
