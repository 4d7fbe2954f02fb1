package propwire

import (
	"encoding/json"
	"math"
	"strconv"
)

// Tag identifies which reconstruction rule the decoder applies to a node.
// The integer values are a wire contract shared by producer and consumer;
// never renumber an existing tag.
type Tag uint8

const (
	TagValue        Tag = 0
	TagArray        Tag = 1
	TagRegExp       Tag = 2
	TagDate         Tag = 3
	TagMap          Tag = 4
	TagSet          Tag = 5
	TagBigInt       Tag = 6
	TagURL          Tag = 7
	TagByteBuffer8  Tag = 8
	TagByteBuffer16 Tag = 9
	TagByteBuffer32 Tag = 10

	maxTag = TagByteBuffer32
)

// RegistryVersion changes whenever the tag table above changes.
// Persisted payloads (see islandcache) are rejected across versions.
const RegistryVersion uint8 = 1

var tagNames = [...]string{
	TagValue:        "Value",
	TagArray:        "Array",
	TagRegExp:       "RegExp",
	TagDate:         "Date",
	TagMap:          "Map",
	TagSet:          "Set",
	TagBigInt:       "BigInt",
	TagURL:          "URL",
	TagByteBuffer8:  "ByteBuffer8",
	TagByteBuffer16: "ByteBuffer16",
	TagByteBuffer32: "ByteBuffer32",
}

func (t Tag) Valid() bool { return t <= maxTag }

func (t Tag) String() string {
	if !t.Valid() {
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
	return tagNames[t]
}

// ParseTag reads a tag from any numeric shape a transport may hand back
// (float64 from JSON, int8/uint8 from msgpack, uint64 from CBOR, ...).
// ok is false for non-numbers, non-integers and ids outside the registry.
func ParseTag(raw any) (Tag, bool) {
	n, ok := wireInt(raw)
	if !ok || n < 0 || n > int64(maxTag) {
		return 0, false
	}
	return Tag(n), true
}

// wireInt converts an integral numeric wire value to int64.
func wireInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uint64ToInt(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uint64ToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func uint64ToInt(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
