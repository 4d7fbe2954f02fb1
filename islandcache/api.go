// Package islandcache keeps serialized island props so re-rendering a page
// does not re-encode props that have not changed.
//
// Writes are guarded by per-key generations: a render snapshots the
// generation, builds props, and stores them with the observed generation.
// An Invalidate in between bumps the generation and the late write is
// dropped, so a cache hit never returns props older than the last
// invalidation.
package islandcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/propwire"
	gen "github.com/unkn0wn-root/propwire/genstore"
	pr "github.com/unkn0wn-root/propwire/provider"
)

type SetCostFunc func(key string, raw []byte) int64

// BuildFunc produces the props for a cache miss.
type BuildFunc func(ctx context.Context) (map[string]any, error)

// Cache is the provider-agnostic payload cache.
type Cache interface {
	Enabled() bool
	Close(context.Context) error

	// SnapshotGen returns the generation a later Store must observe.
	SnapshotGen(key string) uint64

	// Store serializes props and writes them if the generation has not moved
	// since observedGen. ttl 0 means Options.DefaultTTL.
	Store(ctx context.Context, key string, props map[string]any, meta propwire.Metadata, observedGen uint64, ttl time.Duration) error

	// Load returns the serialized payload, exactly as the serializer produced it.
	Load(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Props returns the decoded props of a cached payload.
	Props(ctx context.Context, key string) (props map[string]any, ok bool, err error)

	// GetOrStore returns the cached payload or builds, stores and returns a
	// fresh one.
	GetOrStore(ctx context.Context, key string, meta propwire.Metadata, build BuildFunc) ([]byte, error)

	// Invalidate bumps the generation and deletes the entry.
	Invalidate(ctx context.Context, key string) error
}

// Options tune the payload cache.
// Only Namespace and Provider are required; others have sensible defaults.
type Options struct {
	// Required
	Namespace string // logical namespace, e.g. "islands" or "islands:blog"
	Provider  pr.Provider

	Serializer        propwire.Serializer // nil => JSON serializer with Logger/Hooks unset
	GenStore          gen.GenStore        // nil => genstore.Local (in-process)
	Logger            propwire.Logger     // if nil, NopLogger is used
	Hooks             Hooks               // if nil, NopHooks is used
	DefaultTTL        time.Duration       // 0 => 10m
	CompressThreshold int                 // payloads >= this many bytes are zstd-compressed; 0 => never
	CleanupInterval   time.Duration       // local gens; 0 => 1h
	GenRetention      time.Duration       // local gens; 0 => 30d
	ComputeSetCost    SetCostFunc         // default len(raw)
	Disabled          bool                // default false (enabled)
}

func New(opts Options) (Cache, error) {
	return newCache(opts)
}
