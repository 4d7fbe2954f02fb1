// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/propwire"
//	"github.com/unkn0wn-root/propwire/hooks/async"
//	"github.com/unkn0wn-root/propwire/islandcache"
//	"github.com/unkn0wn-root/propwire/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	    DecodeEvery:   100,
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	ser, _ := propwire.New(propwire.Options{Hooks: hooks})
//	cache, _ := islandcache.New(islandcache.Options{
//	    Namespace:  "site:prod:islands",
//	    Provider:   provider,
//	    Serializer: ser,
//	    Hooks:      hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/propwire"
	"github.com/unkn0wn-root/propwire/islandcache"
)

// Inner receives both codec and cache events.
type Inner interface {
	propwire.Hooks
	islandcache.Hooks
}

type Hooks struct {
	inner   Inner
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var (
	_ propwire.Hooks    = (*Hooks)(nil)
	_ islandcache.Hooks = (*Hooks)(nil)
)

func New(inner Inner, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events. Events sent after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CyclicReference(m propwire.Metadata, p string) {
	h.try(func() { h.inner.CyclicReference(m, p) })
}
func (h *Hooks) UnsupportedType(m propwire.Metadata, p, typ string) {
	h.try(func() { h.inner.UnsupportedType(m, p, typ) })
}
func (h *Hooks) UnknownTag(p string, raw any) { h.try(func() { h.inner.UnknownTag(p, raw) }) }
func (h *Hooks) MalformedNode(p string, t propwire.Tag, r string) {
	h.try(func() { h.inner.MalformedNode(p, t, r) })
}
func (h *Hooks) PayloadRejected(size, limit int) {
	h.try(func() { h.inner.PayloadRejected(size, limit) })
}

func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)     { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) GenBumpError(k string, err error) { h.try(func() { h.inner.GenBumpError(k, err) }) }
func (h *Hooks) GenSnapshotError(k string, err error) {
	h.try(func() { h.inner.GenSnapshotError(k, err) })
}
func (h *Hooks) InvalidateOutage(k string, be, de error) {
	h.try(func() { h.inner.InvalidateOutage(k, be, de) })
}
