// Package cache publishes the reporter's per-sensor snapshots to a shared
// key-value cache so other processes can read the latest statistics.
package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DriverNone      = "none"
	DriverValkey    = "valkey"
	DriverMemcached = "memcached"
)

// Cache abstracts the snapshot key-value store.
type Cache interface {
	// StoreSnapshot caches a JSON-encoded snapshot with a TTL
	StoreSnapshot(ctx context.Context, key string, data any, ttl time.Duration) error

	// Ping checks cache connection
	Ping(ctx context.Context) error

	// Close gracefully closes any connections
	Close()
}

// New builds the cache selected by driver. DriverNone yields a nil Cache.
func New(driver string, valkeyAddrs []string, memcachedAddr string) (Cache, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverValkey:
		if len(valkeyAddrs) == 0 {
			return nil, fmt.Errorf("cache driver %s requires VALKEY_NODES", driver)
		}
		return NewValkey(valkeyAddrs), nil
	case DriverMemcached:
		if memcachedAddr == "" {
			return nil, fmt.Errorf("cache driver %s requires MEMCACHED_ADDR", driver)
		}
		return NewMemcached(memcachedAddr), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

// SnapshotKey is the key a sensor's latest snapshot is stored under.
func SnapshotKey(sensorID int) string {
	return fmt.Sprintf("stats:sensor:%d", sensorID)
}
