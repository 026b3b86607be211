package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/modmap/pkg/observability"
)

type instrumented struct {
	Cache
}

// Instrument reports every Get and Set of c to the registered cache hooks.
// The key kind labels the event: "dataset" or "artifact", with any
// [ScopedKeyer] prefix ignored.
func Instrument(c Cache) Cache { return instrumented{c} }

// keyKind returns the segment before the hash of a "[scope:]kind:hash" key.
func keyKind(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return key
	}
	return parts[len(parts)-2]
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyKind(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyKind(key))
		}
	}
	return data, ok, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyKind(key), len(data))
	}
	return err
}
