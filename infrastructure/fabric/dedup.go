package fabric

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// DedupWindow is the fingerprint retention window: an event fingerprint
// seen again after this long is treated as a new, distinct delivery.
const DedupWindow = 24 * time.Hour

// Deduper answers whether an event fingerprint has already been applied,
// and records newly-seen fingerprints. Implementations must be safe for
// concurrent use across partition workers.
type Deduper interface {
	// SeenOrRecord atomically checks fp and records it if absent, returning
	// true if fp had already been recorded (a duplicate delivery).
	SeenOrRecord(ctx context.Context, fp string) (duplicate bool, err error)
}

// RedisDeduper is a Deduper backed by Redis SETNX with a TTL, so the
// fingerprint set self-expires instead of growing without bound (§4.1
// "dedup window").
type RedisDeduper struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// NewRedisDeduper builds a Deduper against client, namespacing keys under
// prefix (typically the stream name) so independent streams' fingerprints
// never collide.
func NewRedisDeduper(client *redis.Client, prefix string) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix, window: DedupWindow}
}

// WithWindow overrides the default 24h fingerprint retention.
func (d *RedisDeduper) WithWindow(window time.Duration) *RedisDeduper {
	d.window = window
	return d
}

func (d *RedisDeduper) key(fp string) string {
	return d.prefix + ":dedup:" + fp
}

// SeenOrRecord implements Deduper. SetNX returns false when the key
// already existed, which is the duplicate case.
func (d *RedisDeduper) SeenOrRecord(ctx context.Context, fp string) (bool, error) {
	recorded, err := d.client.SetNX(ctx, d.key(fp), 1, d.window).Result()
	if err != nil {
		return false, err
	}
	return !recorded, nil
}

// MemoryDeduper is an in-process Deduper for tests and single-node
// development, avoiding a Redis dependency in unit tests.
type MemoryDeduper struct {
	seen map[string]time.Time
	now  func() time.Time
	window time.Duration
}

// NewMemoryDeduper builds an in-memory Deduper with the default window.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), now: time.Now, window: DedupWindow}
}

func (d *MemoryDeduper) SeenOrRecord(_ context.Context, fp string) (bool, error) {
	now := d.now()
	if seenAt, ok := d.seen[fp]; ok && now.Sub(seenAt) < d.window {
		return true, nil
	}
	d.seen[fp] = now
	return false, nil
}
