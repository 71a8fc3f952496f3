package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// Memory is a process-local Store used for development and tests.
type Memory struct {
	mu      sync.RWMutex
	order   []string
	batches map[string]Batch
	samples map[string][]domain.Sample
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		batches: make(map[string]Batch),
		samples: make(map[string][]domain.Sample),
	}
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) SaveBatch(_ context.Context, batch Batch, samples []domain.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.batches[batch.ID]; exists {
		return fmt.Errorf("save batch %s: already exists", batch.ID)
	}
	batch.Count = len(samples)
	m.order = append(m.order, batch.ID)
	m.batches[batch.ID] = batch
	m.samples[batch.ID] = slices.Clone(samples)
	return nil
}

func (m *Memory) Samples(_ context.Context) ([]domain.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Sample, 0)
	for _, id := range m.order {
		out = append(out, m.samples[id]...)
	}
	return out, nil
}

func (m *Memory) BatchSamples(_ context.Context, id string) ([]domain.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	samples, ok := m.samples[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(samples), nil
}

func (m *Memory) Batches(_ context.Context) ([]Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Batch, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.batches[id])
	}
	return out, nil
}

func (m *Memory) DeleteBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[id]; !ok {
		return ErrNotFound
	}
	delete(m.batches, id)
	delete(m.samples, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}

func (m *Memory) Close() error { return nil }
