package islandcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/propwire"
	c "github.com/unkn0wn-root/propwire/codec"
	gen "github.com/unkn0wn-root/propwire/genstore"
	"github.com/unkn0wn-root/propwire/internal/wire"
	pr "github.com/unkn0wn-root/propwire/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu     sync.Mutex
	m      map[string]memEntry
	reject bool
	delErr error
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) raw(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	return e.v, ok
}

func (p *memProvider) put(key string, v []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = memEntry{v: v}
}

type brokenGens struct{ err error }

var _ gen.GenStore = brokenGens{}

func (g brokenGens) Snapshot(context.Context, string) (uint64, error) { return 0, g.err }
func (g brokenGens) Bump(context.Context, string) (uint64, error)     { return 0, g.err }
func (brokenGens) Cleanup(time.Duration)                              {}
func (brokenGens) Close(context.Context) error                        { return nil }

type recHooks struct {
	mu       sync.Mutex
	heals    []string
	rejected int
	snapErrs int
	bumpErrs int
	outages  int
}

func (h *recHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.heals = append(h.heals, reason)
}

func (h *recHooks) ProviderSetRejected(string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected++
}

func (h *recHooks) GenSnapshotError(string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapErrs++
}

func (h *recHooks) GenBumpError(string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bumpErrs++
}

func (h *recHooks) InvalidateOutage(string, error, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outages++
}

var meta = propwire.Metadata{DisplayName: "Counter", Hydrate: "load"}

func newTestCache(t *testing.T, mp pr.Provider, optsOpt func(*Options)) (*cache, *recHooks) {
	t.Helper()
	h := &recHooks{}
	opts := Options{
		Namespace: "islands",
		Provider:  mp,
		Hooks:     h,
		GenStore:  gen.NewLocal(0, 0),
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := New(opts)
	require.NoError(t, err)
	impl, ok := cc.(*cache)
	require.True(t, ok, "unexpected concrete type for Cache")
	t.Cleanup(func() { _ = cc.Close(context.Background()) })
	return impl, h
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Namespace: "x"})
	require.Error(t, err)
	_, err = New(Options{Provider: newMemProvider()})
	require.Error(t, err)
	_, err = New(Options{Namespace: "x", Provider: newMemProvider(), CompressThreshold: -1})
	require.Error(t, err)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	cc, _ := newTestCache(t, newMemProvider(), nil)

	props := map[string]any{"count": 3, "when": time.UnixMilli(0)}
	require.NoError(t, cc.Store(ctx, "home/counter", props, meta, cc.SnapshotGen("home/counter"), 0))

	payload, ok, err := cc.Load(ctx, "home/counter")
	require.NoError(t, err)
	require.True(t, ok)
	want, err := cc.ser.Serialize(props, meta)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(payload))

	got, ok, err := cc.Props(ctx, "home/counter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(3), got["count"])
	assert.True(t, time.UnixMilli(0).Equal(got["when"].(time.Time)))
}

func TestLoadMiss(t *testing.T) {
	cc, _ := newTestCache(t, newMemProvider(), nil)
	_, ok, err := cc.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaleStoreSkippedAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, _ := newTestCache(t, mp, nil)

	obs := cc.SnapshotGen("k")
	require.NoError(t, cc.Invalidate(ctx, "k"))
	require.NoError(t, cc.Store(ctx, "k", map[string]any{"v": 1}, meta, obs, 0))

	_, ok := mp.raw(cc.storageKey("k"))
	assert.False(t, ok, "stale write must not reach the provider")
}

func TestInvalidateDropsEntry(t *testing.T) {
	ctx := context.Background()
	cc, _ := newTestCache(t, newMemProvider(), nil)

	require.NoError(t, cc.Store(ctx, "k", map[string]any{"v": 1}, meta, cc.SnapshotGen("k"), 0))
	require.NoError(t, cc.Invalidate(ctx, "k"))
	_, ok, err := cc.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenMismatchSelfHeals(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	gens := gen.NewLocal(0, 0)
	cc, h := newTestCache(t, mp, func(o *Options) { o.GenStore = gens })

	require.NoError(t, cc.Store(ctx, "k", map[string]any{"v": 1}, meta, cc.SnapshotGen("k"), 0))
	// bump behind the cache's back, leaving the entry in place
	_, err := gens.Bump(ctx, cc.storageKey("k"))
	require.NoError(t, err)

	_, ok, err := cc.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"gen_mismatch"}, h.heals)
	_, still := mp.raw(cc.storageKey("k"))
	assert.False(t, still)
}

func TestCorruptEntriesSelfHeal(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, h := newTestCache(t, mp, nil)
	k := cc.storageKey("k")

	mp.put(k, []byte("not a frame"))
	_, ok, err := cc.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cc.Store(ctx, "k", map[string]any{"v": "abc"}, meta, cc.SnapshotGen("k"), 0))
	raw, _ := mp.raw(k)
	flipped := append([]byte(nil), raw...)
	flipped[len(flipped)-2] ^= 0x01
	mp.put(k, flipped)
	_, ok, err = cc.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"corrupt", "checksum"}, h.heals)
}

func TestRegistrySkewSelfHeals(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, h := newTestCache(t, mp, nil)

	raw, err := wire.Encode(wire.Frame{
		Registry:  propwire.RegistryVersion + 1,
		Transport: cc.ser.Transport(),
		Payload:   []byte(`{"v":[0,1]}`),
	})
	require.NoError(t, err)
	mp.put(cc.storageKey("k"), raw)

	_, ok, err := cc.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"registry_skew"}, h.heals)
}

func TestTransportMismatchSelfHeals(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	gens := gen.NewLocal(0, 0)
	jsonCache, _ := newTestCache(t, mp, func(o *Options) { o.GenStore = gens })

	ser, err := propwire.New(propwire.Options{Transport: c.MustCBOR[any](true)})
	require.NoError(t, err)
	cborCache, h := newTestCache(t, mp, func(o *Options) {
		o.GenStore = gens
		o.Serializer = ser
	})

	require.NoError(t, jsonCache.Store(ctx, "k", map[string]any{"v": 1}, meta, jsonCache.SnapshotGen("k"), 0))
	_, ok, err := cborCache.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"transport_mismatch"}, h.heals)
}

func TestCompressedEntries(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, _ := newTestCache(t, mp, func(o *Options) { o.CompressThreshold = 64 })

	props := map[string]any{"text": strings.Repeat("island ", 200)}
	require.NoError(t, cc.Store(ctx, "big", props, meta, cc.SnapshotGen("big"), 0))

	raw, ok := mp.raw(cc.storageKey("big"))
	require.True(t, ok)
	f, err := wire.Decode(raw)
	require.NoError(t, err)
	assert.True(t, f.Compressed)

	got, ok, err := cc.Props(ctx, "big")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, props["text"], got["text"])

	// below threshold stays plain
	require.NoError(t, cc.Store(ctx, "small", map[string]any{"v": 1}, meta, cc.SnapshotGen("small"), 0))
	raw, _ = mp.raw(cc.storageKey("small"))
	f, err = wire.Decode(raw)
	require.NoError(t, err)
	assert.False(t, f.Compressed)
}

func TestGetOrStoreBuildsOnce(t *testing.T) {
	ctx := context.Background()
	cc, _ := newTestCache(t, newMemProvider(), nil)

	calls := 0
	build := func(context.Context) (map[string]any, error) {
		calls++
		return map[string]any{"n": calls}, nil
	}
	first, err := cc.GetOrStore(ctx, "k", meta, build)
	require.NoError(t, err)
	second, err := cc.GetOrStore(ctx, "k", meta, build)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrStoreBuildError(t *testing.T) {
	boom := errors.New("boom")
	cc, _ := newTestCache(t, newMemProvider(), nil)
	_, err := cc.GetOrStore(context.Background(), "k", meta, func(context.Context) (map[string]any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, ErrBuild)
	require.ErrorIs(t, err, boom)
}

func TestStoreSurfacesSerializeErrors(t *testing.T) {
	cc, _ := newTestCache(t, newMemProvider(), nil)
	self := map[string]any{}
	self["self"] = self
	err := cc.Store(context.Background(), "k", map[string]any{"o": self}, meta, 0, 0)
	require.ErrorIs(t, err, propwire.ErrCyclicReference)
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, _ := newTestCache(t, mp, func(o *Options) { o.Disabled = true })

	assert.False(t, cc.Enabled())
	payload, err := cc.GetOrStore(ctx, "k", meta, func(context.Context) (map[string]any, error) {
		return map[string]any{"v": true}, nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":[0,true]}`, string(payload))
	assert.Empty(t, mp.m)
	require.NoError(t, cc.Invalidate(ctx, "k"))
}

func TestProviderRejectionReported(t *testing.T) {
	mp := newMemProvider()
	mp.reject = true
	cc, h := newTestCache(t, mp, nil)
	require.NoError(t, cc.Store(context.Background(), "k", map[string]any{"v": 1}, meta, 0, 0))
	assert.Equal(t, 1, h.rejected)
}

func TestInvalidateOutage(t *testing.T) {
	down := errors.New("backend down")
	mp := newMemProvider()
	mp.delErr = down
	cc, h := newTestCache(t, mp, func(o *Options) { o.GenStore = brokenGens{err: down} })

	err := cc.Invalidate(context.Background(), "k")
	var ie *InvalidateError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "k", ie.Key)
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, h.outages)
	assert.Equal(t, 1, h.bumpErrs)
}

func TestSnapshotErrorReported(t *testing.T) {
	cc, h := newTestCache(t, newMemProvider(), func(o *Options) {
		o.GenStore = brokenGens{err: errors.New("down")}
	})
	assert.Equal(t, uint64(0), cc.SnapshotGen("k"))
	assert.Equal(t, 1, h.snapErrs)
}

func TestLongKeysAreDigested(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc, _ := newTestCache(t, mp, nil)

	long := strings.Repeat("k", 500)
	require.NoError(t, cc.Store(ctx, long, map[string]any{"v": 1}, meta, cc.SnapshotGen(long), 0))
	sk := cc.storageKey(long)
	assert.True(t, strings.HasPrefix(sk, "island:islands:h:"))
	_, ok, err := cc.Load(ctx, long)
	require.NoError(t, err)
	assert.True(t, ok)
}
