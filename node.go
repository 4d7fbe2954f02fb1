package propwire

import "github.com/goccy/go-json"

// Node is one encoded value: a tag plus a payload whose shape depends on the
// tag. Absent is set only for the undefined singleton, which carries no
// payload on the wire.
//
// Payload shapes:
//
//	TagValue                          nil | bool | float64 | int64 | uint64 | string | Object
//	TagArray, TagMap, TagSet          []Node (Map entries are TagArray nodes of [key, value])
//	TagRegExp, TagDate, TagBigInt,
//	TagURL                            string
//	TagByteBuffer8/16/32              []uint32
type Node struct {
	Tag     Tag
	Payload any
	Absent  bool
}

// Object is an encoded plain object: property name to encoded value.
type Object map[string]Node

func undefinedNode() Node { return Node{Tag: TagValue, Absent: true} }

// Wire renders the node into the generic tree every transport serializes:
// []any{tag} or []any{tag, payload}, with objects as map[string]any.
func (n Node) Wire() any {
	if n.Absent {
		return []any{int(n.Tag)}
	}
	return []any{int(n.Tag), wirePayload(n.Payload)}
}

// Wire renders the object into the generic tree.
func (o Object) Wire() map[string]any {
	out := make(map[string]any, len(o))
	for k, n := range o {
		out[k] = n.Wire()
	}
	return out
}

func wirePayload(p any) any {
	switch v := p.(type) {
	case Object:
		return v.Wire()
	case []Node:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n.Wire()
		}
		return out
	case []uint32:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	}
	return p
}

// MarshalJSON writes the node in its text wire form, exactly as the JSON
// transport writes Wire().
func (n Node) MarshalJSON() ([]byte, error) { return json.Marshal(n.Wire()) }

// MarshalJSON writes the object with its keys sorted.
func (o Object) MarshalJSON() ([]byte, error) { return json.Marshal(o.Wire()) }
