package propwire

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"reflect"
	"regexp"
	"time"
)

// Encode converts value into its tagged form. meta only enriches errors.
func Encode(value any, meta Metadata) (Node, error) {
	return newEncoder(meta, 0).encode(value, rootStep(), 0)
}

// EncodeObject encodes top-level props. The result is the Encoded Object that
// the text transport embeds, not a Node wrapping it.
func EncodeObject(props map[string]any, meta Metadata) (Object, error) {
	return newEncoder(meta, 0).object(reflect.ValueOf(props), rootStep(), 0)
}

type encoder struct {
	meta     Metadata
	maxDepth int
	seen     ancestors
}

// newEncoder returns an encoder for exactly one top-level call.
func newEncoder(meta Metadata, maxDepth int) *encoder {
	return &encoder{meta: meta, maxDepth: maxDepth, seen: make(ancestors)}
}

func valueNode(v any) Node { return Node{Tag: TagValue, Payload: v} }

func (e *encoder) encode(v any, at *step, depth int) (Node, error) {
	switch x := v.(type) {
	case nil:
		return valueNode(nil), nil
	case UndefinedType:
		return undefinedNode(), nil
	case bool, string:
		return valueNode(x), nil
	case int:
		return valueNode(int64(x)), nil
	case int8:
		return valueNode(int64(x)), nil
	case int16:
		return valueNode(int64(x)), nil
	case int32:
		return valueNode(int64(x)), nil
	case int64:
		return valueNode(x), nil
	case uint:
		return valueNode(uint64(x)), nil
	case uint16:
		return valueNode(uint64(x)), nil
	case uint32:
		return valueNode(uint64(x)), nil
	case uint64:
		return valueNode(x), nil
	case uint8:
		return valueNode(uint64(x)), nil
	case float32:
		return floatNode(float64(x)), nil
	case float64:
		return floatNode(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Node{}, e.unsupported(v, at)
		}
		return floatNode(f), nil

	case time.Time:
		return Node{Tag: TagDate, Payload: formatISO(x)}, nil
	case *time.Time:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagDate, Payload: formatISO(*x)}, nil
	case *regexp.Regexp:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagRegExp, Payload: x.String()}, nil
	case *big.Int:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagBigInt, Payload: x.String()}, nil
	case big.Int:
		return Node{Tag: TagBigInt, Payload: x.String()}, nil
	case *url.URL:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagURL, Payload: x.String()}, nil

	case []uint8:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagByteBuffer8, Payload: widen(x)}, nil
	case []uint16:
		if x == nil {
			return valueNode(nil), nil
		}
		return Node{Tag: TagByteBuffer16, Payload: widen(x)}, nil
	case []uint32:
		if x == nil {
			return valueNode(nil), nil
		}
		out := make([]uint32, len(x))
		copy(out, x)
		return Node{Tag: TagByteBuffer32, Payload: out}, nil

	case *Map:
		if x == nil {
			return valueNode(nil), nil
		}
		return e.mapNode(x, at, depth)
	case *Set:
		if x == nil {
			return valueNode(nil), nil
		}
		return e.setNode(x, at, depth)
	case []any:
		if x == nil {
			return valueNode(nil), nil
		}
		items, err := e.elements(reflect.ValueOf(x), at, depth)
		if err != nil {
			return Node{}, err
		}
		return Node{Tag: TagArray, Payload: items}, nil
	case map[string]any:
		if x == nil {
			return valueNode(nil), nil
		}
		obj, err := e.object(reflect.ValueOf(x), at, depth)
		if err != nil {
			return Node{}, err
		}
		return valueNode(obj), nil
	}
	return e.reflectNode(reflect.ValueOf(v), at, depth)
}

// reflectNode handles named scalar types, typed slices, string-keyed maps
// and pointers to any of the supported kinds.
func (e *encoder) reflectNode(rv reflect.Value, at *step, depth int) (Node, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return valueNode(rv.Bool()), nil
	case reflect.String:
		return valueNode(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return valueNode(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return valueNode(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return floatNode(rv.Float()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return valueNode(nil), nil
		}
		switch rv.Type().Elem().Kind() {
		case reflect.Uint8:
			return Node{Tag: TagByteBuffer8, Payload: widenValue(rv)}, nil
		case reflect.Uint16:
			return Node{Tag: TagByteBuffer16, Payload: widenValue(rv)}, nil
		case reflect.Uint32:
			return Node{Tag: TagByteBuffer32, Payload: widenValue(rv)}, nil
		}
		fallthrough
	case reflect.Array:
		items, err := e.elements(rv, at, depth)
		if err != nil {
			return Node{}, err
		}
		return Node{Tag: TagArray, Payload: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Node{}, e.unsupported(rv.Interface(), at)
		}
		if rv.IsNil() {
			return valueNode(nil), nil
		}
		obj, err := e.object(rv, at, depth)
		if err != nil {
			return Node{}, err
		}
		return valueNode(obj), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return valueNode(nil), nil
		}
		leave, err := e.enter(rv, at, depth)
		if err != nil {
			return Node{}, err
		}
		defer leave()
		return e.encode(rv.Elem().Interface(), at, depth)
	}
	if !rv.IsValid() {
		return valueNode(nil), nil
	}
	return Node{}, e.unsupported(rv.Interface(), at)
}

// enter pushes a container onto the ancestor path. The returned leave func
// must run on every exit from the container, including error returns.
func (e *encoder) enter(v reflect.Value, at *step, depth int) (func(), error) {
	if e.maxDepth > 0 && depth >= e.maxDepth {
		return nil, fmt.Errorf("%w: %d levels at %s", ErrMaxDepth, e.maxDepth, at)
	}
	leave, ok := e.seen.enter(v)
	if !ok {
		return nil, &CyclicReferenceError{Meta: e.meta, Path: at.String()}
	}
	return leave, nil
}

func (e *encoder) elements(rv reflect.Value, at *step, depth int) ([]Node, error) {
	leave, err := e.enter(rv, at, depth)
	if err != nil {
		return nil, err
	}
	defer leave()

	out := make([]Node, rv.Len())
	for i := range out {
		n, err := e.encode(rv.Index(i).Interface(), at.at(i), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (e *encoder) object(rv reflect.Value, at *step, depth int) (Object, error) {
	if rv.IsNil() {
		return Object{}, nil
	}
	leave, err := e.enter(rv, at, depth)
	if err != nil {
		return nil, err
	}
	defer leave()

	out := make(Object, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		n, err := e.encode(iter.Value().Interface(), at.field(k), depth+1)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// mapNode flattens m into [key, value] pair arrays. The map itself is the
// ancestor being tracked; the pair arrays are fresh and cannot close a cycle.
func (e *encoder) mapNode(m *Map, at *step, depth int) (Node, error) {
	leave, err := e.enter(reflect.ValueOf(m), at, depth)
	if err != nil {
		return Node{}, err
	}
	defer leave()

	pairs := make([]Node, len(m.entries))
	for i, ent := range m.entries {
		pairAt := at.at(i)
		k, err := e.encode(ent.Key, pairAt.at(0), depth+2)
		if err != nil {
			return Node{}, err
		}
		v, err := e.encode(ent.Value, pairAt.at(1), depth+2)
		if err != nil {
			return Node{}, err
		}
		pairs[i] = Node{Tag: TagArray, Payload: []Node{k, v}}
	}
	return Node{Tag: TagMap, Payload: pairs}, nil
}

func (e *encoder) setNode(s *Set, at *step, depth int) (Node, error) {
	leave, err := e.enter(reflect.ValueOf(s), at, depth)
	if err != nil {
		return Node{}, err
	}
	defer leave()

	items := make([]Node, len(s.items))
	for i, v := range s.items {
		n, err := e.encode(v, at.at(i), depth+1)
		if err != nil {
			return Node{}, err
		}
		items[i] = n
	}
	return Node{Tag: TagSet, Payload: items}, nil
}

func (e *encoder) unsupported(v any, at *step) error {
	return &UnsupportedTypeError{Meta: e.meta, Path: at.String(), Type: fmt.Sprintf("%T", v)}
}

// floatNode mirrors text JSON: non-finite numbers become null.
func floatNode(f float64) Node {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return valueNode(nil)
	}
	return valueNode(f)
}

func widen[T uint8 | uint16](in []T) []uint32 {
	out := make([]uint32, len(in))
	for i, x := range in {
		out[i] = uint32(x)
	}
	return out
}

// widenValue copies a slice of a named unsigned element type, such as
// json.RawMessage or a []Pixel where Pixel is uint16.
func widenValue(rv reflect.Value) []uint32 {
	out := make([]uint32, rv.Len())
	for i := range out {
		out[i] = uint32(rv.Index(i).Uint())
	}
	return out
}
