package probe

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis is ready when the server answers PING and, if Key is set, the key
// exists.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Key      string

	// Client overrides the connection built from Addr.
	Client redis.UniversalClient

	mu    sync.Mutex
	owned *redis.Client
}

func (r *Redis) client() redis.UniversalClient {
	if r.Client != nil {
		return r.Client
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owned == nil {
		r.owned = redis.NewClient(&redis.Options{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
		})
	}
	return r.owned
}

func (r *Redis) Probe(ctx context.Context) error {
	c := r.client()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis probe %s: %w", r.Addr, err)
	}
	if r.Key == "" {
		return nil
	}
	n, err := c.Exists(ctx, r.Key).Result()
	if err != nil {
		return fmt.Errorf("redis probe %s: %w", r.Addr, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: redis key %q does not exist", ErrNotReady, r.Key)
	}
	return nil
}

// Close releases the connection built from Addr. A caller-supplied Client is
// left open.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owned == nil {
		return nil
	}
	err := r.owned.Close()
	r.owned = nil
	return err
}
