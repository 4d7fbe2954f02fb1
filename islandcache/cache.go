package islandcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/propwire"
	gen "github.com/unkn0wn-root/propwire/genstore"
	"github.com/unkn0wn-root/propwire/internal/util"
	"github.com/unkn0wn-root/propwire/internal/wire"
	pr "github.com/unkn0wn-root/propwire/provider"
)

const (
	keyPrefix           = "island"
	defaultTTL          = 10 * time.Minute
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type cache struct {
	ns         string
	provider   pr.Provider
	ser        propwire.Serializer
	gen        gen.GenStore
	log        propwire.Logger
	hooks      Hooks
	enabled    bool
	defaultTTL time.Duration
	compressAt int
	setCost    SetCostFunc
}

var _ Cache = (*cache)(nil)

func newCache(opts Options) (*cache, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("islandcache: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("islandcache: namespace is required")
	}
	if opts.CompressThreshold < 0 {
		return nil, fmt.Errorf("islandcache: negative CompressThreshold %d", opts.CompressThreshold)
	}

	c := &cache{
		ns:         opts.Namespace,
		provider:   opts.Provider,
		enabled:    !opts.Disabled,
		compressAt: opts.CompressThreshold,
	}
	c.log = coalesce[propwire.Logger](opts.Logger, propwire.NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)

	if opts.Serializer != nil {
		c.ser = opts.Serializer
	} else {
		s, err := propwire.New(propwire.Options{Logger: c.log})
		if err != nil {
			return nil, err
		}
		c.ser = s
	}

	if opts.ComputeSetCost != nil {
		c.setCost = opts.ComputeSetCost
	} else {
		c.setCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = gen.NewLocal(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	return c, nil
}

func (c *cache) Enabled() bool { return c.enabled }

func (c *cache) Close(ctx context.Context) error {
	// gen store first (best effort)
	_ = c.gen.Close(ctx)
	return c.provider.Close(ctx)
}

func (c *cache) SnapshotGen(key string) uint64 {
	return c.snapshotGen(c.storageKey(key))
}

func (c *cache) Store(ctx context.Context, key string, props map[string]any, meta propwire.Metadata, observedGen uint64, ttl time.Duration) error {
	_, err := c.store(ctx, key, props, meta, observedGen, ttl)
	return err
}

// store returns the serialized payload even when the write itself is skipped.
func (c *cache) store(ctx context.Context, key string, props map[string]any, meta propwire.Metadata, observedGen uint64, ttl time.Duration) ([]byte, error) {
	payload, err := c.ser.Serialize(props, meta)
	if err != nil {
		return nil, err
	}
	if !c.enabled {
		return payload, nil
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	k := c.storageKey(key)
	if c.snapshotGen(k) != observedGen {
		// generation moved; skip stale write
		c.log.Debug("store skipped (gen mismatch)", propwire.Fields{"key": key, "obs": observedGen})
		return payload, nil
	}

	f := wire.Frame{
		Registry:  propwire.RegistryVersion,
		Transport: c.ser.Transport(),
		Gen:       observedGen,
		Payload:   payload,
	}
	if c.compressAt > 0 && len(payload) >= c.compressAt {
		if z, ok := compress(payload); ok {
			f.Payload, f.Compressed = z, true
		}
	}
	raw, err := wire.Encode(f)
	if err != nil {
		return nil, err
	}
	ok, err := c.provider.Set(ctx, k, raw, c.setCost(k, raw), ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		c.log.Debug("store rejected by provider (pressure)", propwire.Fields{"key": key})
	}
	return payload, nil
}

func (c *cache) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}
	k := c.storageKey(key)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	f, err := wire.Decode(raw)
	switch {
	case errors.Is(err, wire.ErrChecksum):
		c.selfHeal(ctx, k, "checksum")
		return nil, false, nil
	case err != nil:
		c.selfHeal(ctx, k, "corrupt")
		return nil, false, nil
	case f.Registry != propwire.RegistryVersion:
		c.selfHeal(ctx, k, "registry_skew")
		return nil, false, nil
	case f.Transport != c.ser.Transport():
		c.selfHeal(ctx, k, "transport_mismatch")
		return nil, false, nil
	case f.Gen != c.snapshotGen(k):
		c.selfHeal(ctx, k, "gen_mismatch")
		return nil, false, nil
	}

	if f.Compressed {
		out, err := decompress(f.Payload)
		if err != nil {
			c.selfHeal(ctx, k, "decompress")
			return nil, false, nil
		}
		return out, true, nil
	}
	// f.Payload aliases provider memory
	out := make([]byte, len(f.Payload))
	copy(out, f.Payload)
	return out, true, nil
}

func (c *cache) Props(ctx context.Context, key string) (map[string]any, bool, error) {
	payload, ok, err := c.Load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	props, err := c.ser.Deserialize(payload)
	if err != nil {
		c.selfHeal(ctx, c.storageKey(key), "value_decode")
		return nil, false, nil
	}
	return props, true, nil
}

func (c *cache) GetOrStore(ctx context.Context, key string, meta propwire.Metadata, build BuildFunc) ([]byte, error) {
	obs := c.SnapshotGen(key)
	payload, ok, err := c.Load(ctx, key)
	if err != nil {
		// provider outage: serve a fresh render, skip the write-back
		c.log.Warn("load failed; rendering uncached", propwire.Fields{"key": key, "err": err})
		props, berr := build(ctx)
		if berr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuild, berr)
		}
		return c.ser.Serialize(props, meta)
	}
	if ok {
		return payload, nil
	}
	props, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	return c.store(ctx, key, props, meta, obs, 0)
}

func (c *cache) Invalidate(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	k := c.storageKey(key)
	newGen, bumpErr := c.gen.Bump(ctx, k)
	if bumpErr != nil {
		c.hooks.GenBumpError(k, bumpErr)
		c.log.Error("gen bump error", propwire.Fields{"key": k, "err": bumpErr})
	}
	delErr := c.provider.Del(ctx, k)
	switch {
	case bumpErr != nil && delErr != nil:
		c.hooks.InvalidateOutage(key, bumpErr, delErr)
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	case bumpErr != nil:
		// entry is gone; a racing writer holding the old gen may still land
		return &InvalidateError{Key: key, BumpErr: bumpErr}
	case delErr != nil:
		// gen moved, so the stale entry self-heals on the next read
		c.log.Warn("invalidate delete failed", propwire.Fields{"key": key, "err": delErr})
		return nil
	}
	c.log.Debug("invalidated key (bumped gen + cleared entry)", propwire.Fields{"key": key, "newGen": newGen})
	return nil
}

func (c *cache) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = c.provider.Del(ctx, storageKey)
	c.hooks.SelfHeal(storageKey, reason)
}

func (c *cache) snapshotGen(storageKey string) uint64 {
	g, err := c.gen.Snapshot(context.Background(), storageKey)
	if err != nil {
		// Conservative: treat as 0 so writes observed under a real gen skip and
		// entries carrying one self-heal on read
		c.hooks.GenSnapshotError(storageKey, err)
		c.log.Warn("gen snapshot error", propwire.Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (c *cache) storageKey(userKey string) string {
	return util.StorageKey(keyPrefix, c.ns, userKey)
}
