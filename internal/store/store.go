// Package store defines persistence for canonical samples grouped into
// upload batches, with an in-memory implementation and a read cache.
// Database-backed implementations live under internal/adapter.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// ErrNotFound is returned when a batch id does not exist.
var ErrNotFound = errors.New("batch not found")

// Batch describes one ingested upload.
type Batch struct {
	ID        string    `json:"batchId" yaml:"batch_id"`
	Name      string    `json:"filename" yaml:"filename"`
	Count     int       `json:"count" yaml:"count"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Store persists canonical samples. Implementations must be safe for
// concurrent use.
type Store interface {
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// SaveBatch stores samples under batch.ID. Count is taken from samples.
	SaveBatch(ctx context.Context, batch Batch, samples []domain.Sample) error

	// Samples returns every stored sample, oldest batch first.
	Samples(ctx context.Context) ([]domain.Sample, error)

	// BatchSamples returns the samples of one batch in ingest order.
	BatchSamples(ctx context.Context, id string) ([]domain.Sample, error)

	// Batches lists batch metadata, oldest first.
	Batches(ctx context.Context) ([]Batch, error)

	// DeleteBatch removes a batch and its samples.
	DeleteBatch(ctx context.Context, id string) error

	Close() error
}
