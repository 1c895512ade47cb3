package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultValkeyKey = "telemetry:readings"

var _ Store = (*ValkeyStore)(nil)

// ValkeyStore keeps the document as a single JSON value under one key.
// SET replaces the value atomically.
type ValkeyStore struct {
	client redis.UniversalClient
	key    string
}

func NewValkeyStore(addrs []string, key string) *ValkeyStore {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		DialTimeout: 2 * time.Second,
	})
	return NewValkeyStoreWithClient(client, key)
}

func NewValkeyStoreWithClient(client redis.UniversalClient, key string) *ValkeyStore {
	if key == "" {
		key = DefaultValkeyKey
	}
	return &ValkeyStore{client: client, key: key}
}

func (v *ValkeyStore) ReadAll(ctx context.Context) ([]types.Reading, error) {
	ctx, span := otel.Tracer("telemetry-store").Start(ctx, "store.ReadAll")
	defer span.End()

	span.SetAttributes(
		attribute.String("store.driver", "valkey"),
		attribute.String("store.key", v.key),
	)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	b, err := v.client.Get(ctx, v.key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		span.SetStatus(codes.Ok, "")
		return []types.Reading{}, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store fetch: %w", err)
	}

	var readings []types.Reading
	if err := json.Unmarshal(b, &readings); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to decode readings: %w", err)
	}
	span.SetAttributes(attribute.Int("store.records", len(readings)))
	span.SetStatus(codes.Ok, "")

	return readings, nil
}

func (v *ValkeyStore) WriteAll(ctx context.Context, readings []types.Reading) error {
	ctx, span := otel.Tracer("telemetry-store").Start(ctx, "store.WriteAll")
	defer span.End()

	span.SetAttributes(
		attribute.String("store.driver", "valkey"),
		attribute.String("store.key", v.key),
		attribute.Int("store.records", len(readings)),
	)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if readings == nil {
		readings = []types.Reading{}
	}
	b, err := json.Marshal(readings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to encode readings: %w", err)
	}

	if err := v.client.Set(ctx, v.key, b, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store readings: %w", err)
	}
	span.SetStatus(codes.Ok, "")

	return nil
}

func (v *ValkeyStore) Close() error {
	return v.client.Close()
}
