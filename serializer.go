package propwire

import (
	"errors"
	"fmt"
	"reflect"

	c "github.com/unkn0wn-root/propwire/codec"
)

type serializer struct {
	transport c.Codec[any]
	name      string
	obs       observer
	strict    bool
	maxDepth  int
}

var _ Serializer = (*serializer)(nil)

func newSerializer(opts Options) (*serializer, error) {
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("propwire: negative MaxDepth %d", opts.MaxDepth)
	}
	if opts.MaxPayload < 0 {
		return nil, fmt.Errorf("propwire: negative MaxPayload %d", opts.MaxPayload)
	}

	t := coalesce[c.Codec[any]](opts.Transport, c.JSON[any]{})
	s := &serializer{
		transport: t,
		name:      c.NameOf(t),
		strict:    opts.Strict,
		maxDepth:  opts.MaxDepth,
		obs: observer{
			log:   coalesce[Logger](opts.Logger, NopLogger{}),
			hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
		},
	}
	if opts.MaxPayload > 0 {
		s.transport = c.LimitCodec[any]{Inner: t, MaxDecode: opts.MaxPayload}
	}
	return s, nil
}

func (s *serializer) Transport() string { return s.name }

func (s *serializer) Serialize(props map[string]any, meta Metadata) ([]byte, error) {
	enc := newEncoder(meta, s.maxDepth)
	obj, err := enc.object(reflect.ValueOf(props), rootStep(), 0)
	if err != nil {
		s.reportEncode(err)
		return nil, err
	}
	b, err := s.transport.Encode(obj.Wire())
	if err != nil {
		return nil, fmt.Errorf("propwire: %s encode: %w", s.name, err)
	}
	return b, nil
}

func (s *serializer) SerializeProps(props map[string]any, meta Metadata) (string, error) {
	b, err := s.Serialize(props, meta)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *serializer) Deserialize(payload []byte) (map[string]any, error) {
	raw, err := s.transport.Decode(payload)
	if err != nil {
		var tooLarge *c.PayloadTooLargeError
		if errors.As(err, &tooLarge) {
			s.obs.PayloadRejected(tooLarge.Size, tooLarge.Limit)
		}
		return nil, fmt.Errorf("propwire: %s decode: %w", s.name, err)
	}
	d := Decoder{Strict: s.strict, Hooks: s.obs}
	return d.DecodeObject(raw)
}

func (s *serializer) DeserializeString(text string) (map[string]any, error) {
	return s.Deserialize([]byte(text))
}

func (s *serializer) reportEncode(err error) {
	var cyc *CyclicReferenceError
	var uns *UnsupportedTypeError
	switch {
	case errors.As(err, &cyc):
		s.obs.CyclicReference(cyc.Meta, cyc.Path)
	case errors.As(err, &uns):
		s.obs.UnsupportedType(uns.Meta, uns.Path, uns.Type)
	}
}

var defaultSerializer, _ = newSerializer(Options{})

// SerializeProps encodes props as JSON text for embedding in markup.
// Escaping the text for its surrounding markup is the caller's job.
func SerializeProps(props map[string]any, meta Metadata) (string, error) {
	return defaultSerializer.SerializeProps(props, meta)
}

// Deserialize reverses SerializeProps with a lenient decoder.
func Deserialize(text string) (map[string]any, error) {
	return defaultSerializer.DeserializeString(text)
}
