package codec

import "fmt"

// Names lists the built-in transports accepted by ByName.
var Names = []string{"json", "cbor", "msgpack", "proto"}

// ByName returns a built-in transport for the generic props tree.
// CBOR is returned in deterministic mode.
func ByName(name string) (Codec[any], error) {
	switch name {
	case "json", "":
		return JSON[any]{}, nil
	case "cbor":
		return NewCBOR[any](true)
	case "msgpack":
		return Msgpack[any]{}, nil
	case "proto":
		return ProtoValue{}, nil
	}
	return nil, fmt.Errorf("codec: unknown transport %q (want one of %v)", name, Names)
}
