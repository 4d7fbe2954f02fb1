package codec

import "github.com/goccy/go-json"

// JSON is the text transport used when props are embedded in markup.
// Object keys are written in sorted order, so equal trees produce equal text.
// Numbers decode as float64.
type JSON[V any] struct{}

var _ Codec[any] = JSON[any]{}

func (JSON[V]) Name() string { return "json" }

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
