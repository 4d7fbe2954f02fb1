package propwire

// Hooks are lightweight callbacks for high-signal codec events.
// Implementations MUST be cheap and non-blocking; the decoder calls them
// once per degraded node.
type Hooks interface {
	// Encode refused a container that is its own ancestor.
	CyclicReference(meta Metadata, path string)

	// Encode met a value with no wire representation.
	UnsupportedType(meta Metadata, path, typ string)

	// Decode met a tag outside the registry (likely producer/consumer skew).
	// Lenient decoders continue with Undefined in its place.
	UnknownTag(path string, raw any)

	// Decode met a node whose payload does not fit its tag.
	MalformedNode(path string, tag Tag, reason string)

	// A payload was refused before decoding because it exceeded MaxPayload.
	PayloadRejected(size, limit int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CyclicReference(Metadata, string)         {}
func (NopHooks) UnsupportedType(Metadata, string, string) {}
func (NopHooks) UnknownTag(string, any)                   {}
func (NopHooks) MalformedNode(string, Tag, string)        {}
func (NopHooks) PayloadRejected(int, int)                 {}

// observer forwards events to the configured hooks and mirrors them to the
// logger so degraded decodes are never completely silent.
type observer struct {
	log   Logger
	hooks Hooks
}

var _ Hooks = observer{}

func (o observer) CyclicReference(meta Metadata, path string) {
	o.log.Warn("cyclic reference in props", Fields{"component": meta.DisplayName, "hydrate": meta.Hydrate, "path": path})
	o.hooks.CyclicReference(meta, path)
}

func (o observer) UnsupportedType(meta Metadata, path, typ string) {
	o.log.Warn("unsupported prop type", Fields{"component": meta.DisplayName, "path": path, "type": typ})
	o.hooks.UnsupportedType(meta, path, typ)
}

func (o observer) UnknownTag(path string, raw any) {
	o.log.Debug("unknown tag in payload", Fields{"path": path, "tag": raw})
	o.hooks.UnknownTag(path, raw)
}

func (o observer) MalformedNode(path string, tag Tag, reason string) {
	o.log.Debug("malformed node in payload", Fields{"path": path, "tag": tag.String(), "reason": reason})
	o.hooks.MalformedNode(path, tag, reason)
}

func (o observer) PayloadRejected(size, limit int) {
	o.log.Warn("payload rejected", Fields{"size": size, "limit": limit})
	o.hooks.PayloadRejected(size, limit)
}
