package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Memcached)(nil)

type Memcached struct {
	client  *memcache.Client
	metrics *CacheMetrics
}

func NewMemcached(addr string) *Memcached {
	client := memcache.New(addr)
	cm := NewCacheMetrics(DriverMemcached)
	return &Memcached{client, cm}
}

// store bounds the blocking memcache call by ctx.
func (m *Memcached) store(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- m.client.Set(&memcache.Item{Key: key, Value: val, Expiration: int32(ttl.Seconds())})
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memcached) StoreSnapshot(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer("telemetry-cache").Start(ctx, "cache.StoreSnapshot")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverMemcached),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	start := time.Now()
	if err := m.store(ctx, key, b, ttl); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	m.metrics.RecordWrite(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (m *Memcached) Ping(ctx context.Context) error {
	return m.client.Ping()
}

func (m *Memcached) Close() {
	m.client.Close()
}
