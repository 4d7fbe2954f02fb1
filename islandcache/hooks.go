package islandcache

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking.
type Hooks interface {
	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "checksum", "registry_skew", "transport_mismatch",
	// "gen_mismatch", "decompress", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors.
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(string, error)        {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
