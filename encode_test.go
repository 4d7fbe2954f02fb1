package propwire

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCyclicObjectIsRejected(t *testing.T) {
	self := map[string]any{}
	self["self"] = self

	_, err := SerializeProps(map[string]any{"o": self}, testMeta)
	if !errors.Is(err, ErrCyclicReference) {
		t.Fatalf("err = %v, want ErrCyclicReference", err)
	}

	var cyc *CyclicReferenceError
	if !errors.As(err, &cyc) {
		t.Fatalf("err %T is not a CyclicReferenceError", err)
	}
	if cyc.Path != "$.o.self" {
		t.Fatalf("Path = %q", cyc.Path)
	}
	if cyc.Meta != testMeta {
		t.Fatalf("Meta = %+v", cyc.Meta)
	}
	for _, want := range []string{"<Counter client:load>", "remove the cyclic reference"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("message %q lacks %q", err.Error(), want)
		}
	}
}

func cyclePath(t *testing.T, err error) string {
	t.Helper()
	var cyc *CyclicReferenceError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want CyclicReferenceError", err)
	}
	return cyc.Path
}

func TestCyclicTopLevelProps(t *testing.T) {
	props := map[string]any{}
	props["me"] = props
	_, err := EncodeObject(props, testMeta)
	if p := cyclePath(t, err); p != "$.me" {
		t.Fatalf("Path = %q", p)
	}
}

func TestCyclicSlice(t *testing.T) {
	s := make([]any, 2)
	s[1] = s
	_, err := Encode(s, testMeta)
	if p := cyclePath(t, err); p != "$[1]" {
		t.Fatalf("Path = %q", p)
	}
}

func TestCyclicPointer(t *testing.T) {
	var v any
	p := &v
	v = p
	if _, err := Encode(p, testMeta); !errors.Is(err, ErrCyclicReference) {
		t.Fatalf("err = %v", err)
	}
}

func TestSelfContainingMapAndSet(t *testing.T) {
	m := NewMap()
	m.Set("me", m)
	k := NewMap()
	k.Set(k, 1)
	s := NewSet()
	s.Add(s)

	for _, v := range []any{m, k, s} {
		if _, err := Encode(v, testMeta); !errors.Is(err, ErrCyclicReference) {
			t.Fatalf("Encode(%T) err = %v", v, err)
		}
	}
}

func TestCycleThroughMixedContainers(t *testing.T) {
	obj := map[string]any{}
	list := []any{obj}
	m := NewMap(Entry{Key: "list", Value: list})
	obj["m"] = m

	_, err := Encode(obj, testMeta)
	if p := cyclePath(t, err); p != "$.m[0][1][0]" {
		t.Fatalf("Path = %q", p)
	}
}

func TestRepeatedSiblingsAreNotCycles(t *testing.T) {
	leaf := []any{1}
	n, err := Encode([]any{leaf, leaf, []any{leaf}}, testMeta)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := len(n.Payload.([]Node)); got != 3 {
		t.Fatalf("len = %d, want 3", got)
	}
}

func TestUnsupportedTypes(t *testing.T) {
	type point struct{ X, Y int }
	cases := map[string]any{
		"struct":   point{1, 2},
		"chan":     make(chan int),
		"func":     func() {},
		"int keys": map[int]string{1: "a"},
		"complex":  complex(1, 2),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := SerializeProps(map[string]any{"bad": []any{v}}, testMeta)
			if !errors.Is(err, ErrUnsupportedType) {
				t.Fatalf("err = %v, want ErrUnsupportedType", err)
			}
			var uns *UnsupportedTypeError
			if !errors.As(err, &uns) || uns.Path != "$.bad[0]" {
				t.Fatalf("err = %#v", err)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	s, err := New(Options{MaxDepth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Serialize(map[string]any{"a": map[string]any{"b": []any{1}}}, testMeta); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
	_, err = s.Serialize(map[string]any{"a": map[string]any{"b": []any{[]any{1}}}}, testMeta)
	if !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("depth 4: err = %v, want ErrMaxDepth", err)
	}
}

func TestEncodeNodeShapes(t *testing.T) {
	n, err := Encode(map[string]any{"n": 1, "u": Undefined}, testMeta)
	if err != nil {
		t.Fatal(err)
	}
	if n.Tag != TagValue {
		t.Fatalf("Tag = %v", n.Tag)
	}
	obj := n.Payload.(Object)
	if obj["n"] != (Node{Tag: TagValue, Payload: int64(1)}) {
		t.Fatalf("n = %#v", obj["n"])
	}
	if !obj["u"].Absent {
		t.Fatalf("u is not absent")
	}

	n, err = Encode(NewMap(Entry{Key: "k", Value: "v"}), testMeta)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{4, []any{[]any{1, []any{[]any{0, "k"}, []any{0, "v"}}}}}
	if got := n.Wire(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Wire = %#v", got)
	}
}

func TestTypedNilsEncodeAsNull(t *testing.T) {
	type blob []byte
	var m map[string]any
	var s []any
	var p *int
	for _, v := range []any{m, s, p, (*Map)(nil), (*Set)(nil), []uint8(nil), blob(nil)} {
		n, err := Encode(v, testMeta)
		if err != nil {
			t.Fatalf("Encode(%T): %v", v, err)
		}
		if n != valueNode(nil) {
			t.Fatalf("Encode(%T) = %#v", v, n)
		}
	}
}
