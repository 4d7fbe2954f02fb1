package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/propwire/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis shares island payloads between renderer replicas, so a page rendered
// on one replica can hydrate from props cached by another.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	maxValue    int
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client

	// MaxValueBytes rejects larger frames without a round-trip. Oversized
	// islands are then rendered uncached instead of filling the shared tier.
	// 0 means no limit.
	MaxValueBytes int
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.MaxValueBytes < 0 {
		return nil, errors.New("redis provider: negative MaxValueBytes")
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, maxValue: cfg.MaxValueBytes}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// Set ignores cost. A non-positive ttl stores without expiry.
func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if p.maxValue > 0 && len(value) > p.maxValue {
		return false, nil
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Close releases the client only when this provider owns it. Repeated calls
// are no-ops.
func (p *Redis) Close(context.Context) error {
	if !p.closeClient {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
