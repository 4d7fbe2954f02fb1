package propwire

import (
	"bytes"
	"errors"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	c "github.com/unkn0wn-root/propwire/codec"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ Fields) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ Fields)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ Fields)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ Fields) { l.add("error", msg) }

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.msgs, msg)
}

func richProps() map[string]any {
	return map[string]any{
		"count": 3,
		"label": "hi",
		"flags": []any{true, false, nil},
		"gone":  Undefined,
		"when":  time.UnixMilli(1_000),
		"re":    regexp.MustCompile(`^\d+$`),
		"big":   new(big.Int).Lsh(big.NewInt(1), 70),
		"m":     NewMap(Entry{Key: "k", Value: 1}),
		"s":     NewSet("a", "b"),
		"buf":   []uint8{0, 128, 255},
		"obj":   map[string]any{"deep": []any{map[string]any{"x": 1.5}}},
	}
}

func checkRichProps(t *testing.T, out map[string]any) {
	t.Helper()
	expectEqual(t, out["count"], float64(3))
	expectEqual(t, out["label"], "hi")
	expectEqual(t, out["flags"], []any{true, false, nil})
	if !IsUndefined(out["gone"]) {
		t.Fatalf("gone = %#v", out["gone"])
	}
	if when := out["when"].(time.Time); !when.Equal(time.UnixMilli(1_000)) {
		t.Fatalf("when = %v", when)
	}
	if re := out["re"].(*regexp.Regexp).String(); re != `^\d+$` {
		t.Fatalf("re = %q", re)
	}
	if n := out["big"].(*big.Int).String(); n != "1180591620717411303424" {
		t.Fatalf("big = %s", n)
	}
	if v, ok := out["m"].(*Map).Get("k"); !ok || v != float64(1) {
		t.Fatalf("m[k] = %v, %v", v, ok)
	}
	expectEqual(t, out["s"].(*Set).Values(), []any{"a", "b"})
	expectEqual(t, out["buf"], []uint8{0, 128, 255})
	expectEqual(t, out["obj"], map[string]any{"deep": []any{map[string]any{"x": 1.5}}})
}

func TestSerializerTransports(t *testing.T) {
	for _, name := range c.Names {
		t.Run(name, func(t *testing.T) {
			tr, err := c.ByName(name)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			s, err := New(Options{Transport: tr, Strict: true})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if s.Transport() != name {
				t.Fatalf("Transport = %q", s.Transport())
			}

			b, err := s.Serialize(richProps(), testMeta)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			out, err := s.Deserialize(b)
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			checkRichProps(t, out)
		})
	}
}

func TestSerializerIsDeterministic(t *testing.T) {
	for _, name := range []string{"json", "cbor", "msgpack"} {
		tr, err := c.ByName(name)
		if err != nil {
			t.Fatal(err)
		}
		s, err := New(Options{Transport: tr})
		if err != nil {
			t.Fatal(err)
		}
		a, err := s.Serialize(richProps(), testMeta)
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Serialize(richProps(), testMeta)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("%s: two encodes differ", name)
		}
	}
}

func TestSerializerOptionsValidation(t *testing.T) {
	if _, err := New(Options{MaxDepth: -1}); err == nil {
		t.Fatalf("negative MaxDepth accepted")
	}
	if _, err := New(Options{MaxPayload: -1}); err == nil {
		t.Fatalf("negative MaxPayload accepted")
	}
	s, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Transport() != "json" {
		t.Fatalf("default transport = %q", s.Transport())
	}
}

func TestMaxPayloadRejectsBeforeDecoding(t *testing.T) {
	h := &recordingHooks{}
	log := &recordingLogger{}
	s, err := New(Options{MaxPayload: 16, Hooks: h, Logger: log})
	if err != nil {
		t.Fatal(err)
	}
	if s.Transport() != "json" {
		t.Fatalf("Transport = %q", s.Transport())
	}

	_, err = s.DeserializeString(`{"a":[0,"this is more than sixteen bytes"]}`)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	if h.rejected != 1 {
		t.Fatalf("PayloadRejected fired %d times", h.rejected)
	}
	if !log.has("warn: payload rejected") {
		t.Fatalf("logs = %v", log.msgs)
	}

	out, err := s.DeserializeString(`{"a":[0,1]}`)
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, out["a"], float64(1))
}

type cycleHooks struct {
	NopHooks
	paths []string
}

func (h *cycleHooks) CyclicReference(_ Metadata, path string) { h.paths = append(h.paths, path) }

func TestCyclicReferenceIsReported(t *testing.T) {
	h := &cycleHooks{}
	log := &recordingLogger{}
	s, err := New(Options{Hooks: h, Logger: log})
	if err != nil {
		t.Fatal(err)
	}

	loop := []any{nil}
	loop[0] = loop
	_, err = s.SerializeProps(map[string]any{"loop": loop}, testMeta)
	if !errors.Is(err, ErrCyclicReference) {
		t.Fatalf("err = %v", err)
	}
	expectEqual(t, h.paths, []string{"$.loop[0]"})
	if !log.has("warn: cyclic reference in props") {
		t.Fatalf("logs = %v", log.msgs)
	}
}

func TestLenientDecodeIsLogged(t *testing.T) {
	log := &recordingLogger{}
	s, err := New(Options{Logger: log})
	if err != nil {
		t.Fatal(err)
	}

	out, err := s.DeserializeString(`{"a":[77,1],"b":[3,"nope"]}`)
	if err != nil {
		t.Fatal(err)
	}
	if !IsUndefined(out["a"]) || !IsUndefined(out["b"]) {
		t.Fatalf("out = %#v", out)
	}
	got := append([]string(nil), log.msgs...)
	sort.Strings(got)
	want := []string{"debug: malformed node in payload", "debug: unknown tag in payload"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("logs = %v, want %v", got, want)
	}
}

func TestDeserializeErrors(t *testing.T) {
	if _, err := Deserialize(`[0,1]`); !errors.Is(err, ErrNotObject) {
		t.Fatalf("array: err = %v", err)
	}
	if _, err := Deserialize(`{not json`); err == nil {
		t.Fatalf("bad JSON accepted")
	}
}

func TestConcurrentSerialize(t *testing.T) {
	s, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	shared := map[string]any{"v": []any{1, 2, 3}}

	errs := make(chan error, 8*50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b, err := s.Serialize(map[string]any{"a": shared, "b": shared}, testMeta)
				if err == nil {
					_, err = s.Deserialize(b)
				}
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent round trip: %v", err)
	}
}
