// Package store implements the durable whole-document record store the
// persister rewrites on every flush.
package store

import (
	"context"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

// Store reads and rewrites the complete set of persisted readings.
type Store interface {
	// ReadAll returns every persisted reading, oldest first. A store that
	// was never written returns an empty slice.
	ReadAll(ctx context.Context) ([]types.Reading, error)

	// WriteAll replaces the persisted document with readings.
	WriteAll(ctx context.Context, readings []types.Reading) error
}
