package propwire

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Decode reconstructs one value from its generic wire form. It never fails:
// unknown tags and malformed nodes become Undefined.
func Decode(raw any) any {
	v, _ := Decoder{}.Decode(raw)
	return v
}

// DecodeObject reconstructs top-level props. It returns nil when raw is not
// an encoded object.
func DecodeObject(raw any) map[string]any {
	v, _ := Decoder{}.DecodeObject(raw)
	return v
}

// DecodeNode decodes an in-process Node without a transport in between.
func DecodeNode(n Node) any {
	return Decode(n.Wire())
}

// Decoder walks a wire tree top-down: each node's tag is read before its
// payload is interpreted, because the same array-of-pairs shape means a Map,
// a Set of arrays or a plain array depending on the tag that owns it.
//
// The zero value is lenient: unknown tags and malformed nodes decode to
// Undefined. A Strict decoder returns *UnknownTagError or *MalformedNodeError
// instead, so version skew between producer and consumer is surfaced.
type Decoder struct {
	Strict bool
	Hooks  Hooks // optional; told about every degraded node
}

func (d Decoder) Decode(raw any) (any, error) {
	return d.node(raw, rootStep())
}

// DecodeObject decodes an encoded object. Unlike node-level problems, a
// top level that is not an object is always an error.
func (d Decoder) DecodeObject(raw any) (map[string]any, error) {
	fields, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, raw)
	}
	return d.object(fields, rootStep())
}

func (d Decoder) node(raw any, at *step) (any, error) {
	tuple, ok := raw.([]any)
	if !ok || len(tuple) == 0 || len(tuple) > 2 {
		return d.malformed(TagValue, at, fmt.Sprintf("want [tag] or [tag, payload], got %T", raw))
	}
	tag, ok := ParseTag(tuple[0])
	if !ok {
		if d.Hooks != nil {
			d.Hooks.UnknownTag(at.String(), tuple[0])
		}
		if d.Strict {
			return nil, &UnknownTagError{Path: at.String(), Raw: tuple[0]}
		}
		return Undefined, nil
	}
	if len(tuple) == 1 {
		if tag == TagValue {
			return Undefined, nil
		}
		return d.malformed(tag, at, "missing payload")
	}
	payload := tuple[1]

	switch tag {
	case TagValue:
		return d.value(payload, at)
	case TagArray:
		return d.array(tag, payload, at)
	case TagRegExp:
		s, ok := payload.(string)
		if !ok {
			return d.malformed(tag, at, "source is not a string")
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return d.malformed(tag, at, err.Error())
		}
		return re, nil
	case TagDate:
		return d.date(payload, at)
	case TagMap:
		items, err := d.array(tag, payload, at)
		if err != nil || IsUndefined(items) {
			return items, err
		}
		list := items.([]any)
		m := &Map{entries: make([]Entry, 0, len(list))}
		for i, it := range list {
			pair, ok := it.([]any)
			if !ok || len(pair) != 2 {
				return d.malformed(tag, at.at(i), "entry is not a [key, value] pair")
			}
			m.push(pair[0], pair[1])
		}
		return m, nil
	case TagSet:
		items, err := d.array(tag, payload, at)
		if err != nil || IsUndefined(items) {
			return items, err
		}
		list := items.([]any)
		set := &Set{items: make([]any, 0, len(list))}
		for _, it := range list {
			set.push(it)
		}
		return set, nil
	case TagBigInt:
		return d.bigInt(payload, at)
	case TagURL:
		s, ok := payload.(string)
		if !ok {
			return d.malformed(tag, at, "url is not a string")
		}
		u, err := url.Parse(s)
		if err != nil {
			return d.malformed(tag, at, err.Error())
		}
		return u, nil
	case TagByteBuffer8, TagByteBuffer16, TagByteBuffer32:
		return d.buffer(tag, payload, at)
	}
	// unreachable while ParseTag and this switch cover the same registry
	return d.malformed(tag, at, "no reconstruction rule")
}

func (d Decoder) value(payload any, at *step) (any, error) {
	switch v := payload.(type) {
	case nil, bool, string:
		return v, nil
	}
	if f, ok := wireFloat(payload); ok {
		return f, nil
	}
	if fields, ok := asObject(payload); ok {
		return d.object(fields, at)
	}
	return d.malformed(TagValue, at, fmt.Sprintf("unexpected payload %T", payload))
}

func (d Decoder) object(fields map[string]any, at *step) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, raw := range fields {
		v, err := d.node(raw, at.field(k))
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (d Decoder) array(tag Tag, payload any, at *step) (any, error) {
	list, ok := payload.([]any)
	if !ok {
		return d.malformed(tag, at, fmt.Sprintf("payload is %T, not an array", payload))
	}
	out := make([]any, len(list))
	for i, raw := range list {
		v, err := d.node(raw, at.at(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d Decoder) date(payload any, at *step) (any, error) {
	if s, ok := payload.(string); ok {
		t, err := parseISO(s)
		if err != nil {
			return d.malformed(TagDate, at, err.Error())
		}
		return t, nil
	}
	// a numeric payload is epoch milliseconds
	if f, ok := wireFloat(payload); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	return d.malformed(TagDate, at, fmt.Sprintf("unexpected payload %T", payload))
}

func (d Decoder) bigInt(payload any, at *step) (any, error) {
	switch v := payload.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return new(big.Int), nil
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return d.malformed(TagBigInt, at, "not a decimal integer: "+v)
		}
		return n, nil
	}
	if i, ok := wireInt(payload); ok {
		return big.NewInt(i), nil
	}
	return d.malformed(TagBigInt, at, fmt.Sprintf("unexpected payload %T", payload))
}

// buffer always allocates; element values wrap modulo the element width.
func (d Decoder) buffer(tag Tag, payload any, at *step) (any, error) {
	list, ok := payload.([]any)
	if !ok {
		return d.malformed(tag, at, fmt.Sprintf("payload is %T, not an array", payload))
	}
	vals := make([]float64, len(list))
	for i, raw := range list {
		f, ok := wireFloat(raw)
		if !ok {
			return d.malformed(tag, at.at(i), fmt.Sprintf("element is %T, not a number", raw))
		}
		vals[i] = f
	}
	switch tag {
	case TagByteBuffer8:
		out := make([]uint8, len(vals))
		for i, f := range vals {
			out[i] = uint8(wrapUint(f, 8))
		}
		return out, nil
	case TagByteBuffer16:
		out := make([]uint16, len(vals))
		for i, f := range vals {
			out[i] = uint16(wrapUint(f, 16))
		}
		return out, nil
	default:
		out := make([]uint32, len(vals))
		for i, f := range vals {
			out[i] = uint32(wrapUint(f, 32))
		}
		return out, nil
	}
}

func (d Decoder) malformed(tag Tag, at *step, reason string) (any, error) {
	if d.Hooks != nil {
		d.Hooks.MalformedNode(at.String(), tag, reason)
	}
	if d.Strict {
		return nil, &MalformedNodeError{Path: at.String(), Tag: tag, Reason: reason}
	}
	return Undefined, nil
}

// asObject accepts the map shapes transports produce for an object.
func asObject(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, m != nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}

// wireFloat normalizes every numeric wire shape to float64, the number type
// props decode into.
func wireFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// wrapUint converts f the way typed-array element assignment does:
// truncate toward zero, non-finite to 0, then modulo 2^bits.
func wrapUint(f float64, bits uint) uint64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	mod := math.Ldexp(1, int(bits))
	m := math.Mod(math.Trunc(f), mod)
	if m < 0 {
		m += mod
	}
	return uint64(m)
}
