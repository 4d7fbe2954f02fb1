// Package propwire serializes the props of client-hydrated components into a
// tagged, JSON-compatible tree that survives a text boundary, and rebuilds
// the original values on the other side.
//
// Plain JSON cannot tell a date from a string or a Map from an array of
// pairs, so every value travels as a [tag, payload] tuple:
//
//	{"when":[3,"1970-01-01T00:00:00.000Z"],"ids":[5,[[0,1],[0,2]]],"gone":[0]}
//
// Components:
//   - Tag: closed registry of value kinds. The integers are a wire contract.
//   - Encode / EncodeObject: walk a value graph, refusing self-referential
//     containers with *CyclicReferenceError.
//   - Decoder: walk a wire tree top-down and rebuild native values. Lenient by
//     default (unknown or malformed nodes become Undefined); Strict reports them.
//   - Serializer: Encode + a codec.Codec transport (JSON text by default;
//     CBOR, msgpack and protobuf Value are available in package codec).
//   - islandcache: generation-checked cache of serialized payloads over the
//     providers in package provider.
//
// Go value mapping:
//
//	Undefined            <-> [0]
//	nil, bool, string    <-> [0, scalar]
//	numbers              <-> [0, number]        (decode as float64)
//	map[string]any       <-> [0, {...}]
//	[]any, other slices  <-> [1, [...]]         (decode as []any)
//	*regexp.Regexp       <-> [2, source]
//	time.Time            <-> [3, iso8601]       (millisecond precision, UTC)
//	*Map                 <-> [4, [[1,[k,v]],...]]
//	*Set                 <-> [5, [...]]
//	*big.Int             <-> [6, decimal]
//	*url.URL             <-> [7, url]
//	[]uint8/16/32        <-> [8|9|10, [n,...]]  (decode into a fresh buffer)
//
// Typical use on the rendering side:
//
//	text, err := propwire.SerializeProps(props, propwire.Metadata{DisplayName: "Counter", Hydrate: "load"})
//
// and on the hydrating side:
//
//	props, err := propwire.Deserialize(text)
package propwire
