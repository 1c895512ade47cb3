package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Valkey)(nil)

type Valkey struct {
	client  redis.UniversalClient
	metrics *CacheMetrics
}

func NewValkey(addrs []string) *Valkey {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		DialTimeout: 2 * time.Second,
	})
	return NewValkeyWithClient(client)
}

func NewValkeyWithClient(client redis.UniversalClient) *Valkey {
	cm := NewCacheMetrics(DriverValkey)
	return &Valkey{client, cm}
}

func (v *Valkey) StoreSnapshot(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer("telemetry-cache").Start(ctx, "cache.StoreSnapshot")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverValkey),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	start := time.Now()
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	v.metrics.RecordWrite(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *Valkey) Close() {
	v.client.Close()
}
