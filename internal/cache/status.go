package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "netinv:"

// StatusCache keeps the latest device observation and the reconcile run
// lock. A nil StatusCache, or one without a client, is a no-op.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache creates a StatusCache; observations expire after ttl
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

func (c *StatusCache) enabled() bool {
	return c != nil && c.client != nil
}

func observationKey(deviceID int) string {
	return fmt.Sprintf("%sdevice:%d:observation", keyPrefix, deviceID)
}

// PutObservation stores v as the device's latest observation
func (c *StatusCache) PutObservation(ctx context.Context, deviceID int, v interface{}) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	return c.client.Set(ctx, observationKey(deviceID), data, c.ttl).Err()
}

// GetObservation decodes the device's latest observation into out.
// found is false when nothing is cached.
func (c *StatusCache) GetObservation(ctx context.Context, deviceID int, out interface{}) (found bool, err error) {
	if !c.enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, observationKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode observation: %w", err)
	}
	return true, nil
}

// compare-and-delete so a lock that expired and was re-taken is not released
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock takes the named lock for ttl with SET NX. ok is false when another
// holder owns it. release is always safe to call.
func (c *StatusCache) TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error) {
	if !c.enabled() {
		return func() {}, true, nil
	}

	key := keyPrefix + "lock:" + name
	token := uuid.NewString()
	ok, err = c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release = func() {
		// the caller's context may already be done
		releaseScript.Run(context.Background(), c.client, []string{key}, token)
	}
	return release, true, nil
}
