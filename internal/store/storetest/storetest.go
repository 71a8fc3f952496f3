// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

var createdAt = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})

	t.Run("save and read batch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		samples := []domain.Sample{
			{SampleID: "G1", Location: "Kanpur", Latitude: 26.45, Longitude: 80.12, PH: 7.4, EC: 512, TDS: 310, As: 12, Pb: 6.5, HeavyMetalIndex: 1.5},
			{SampleID: "G2", Location: "Unnao", Cd: 4, Zn: 120},
		}
		require.NoError(t, s.SaveBatch(ctx, store.Batch{ID: "b1", Name: "survey.csv", CreatedAt: createdAt}, samples))

		got, err := s.BatchSamples(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, samples, got)

		batches, err := s.Batches(ctx)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "b1", batches[0].ID)
		assert.Equal(t, "survey.csv", batches[0].Name)
		assert.Equal(t, 2, batches[0].Count)
		assert.True(t, createdAt.Equal(batches[0].CreatedAt))
	})

	t.Run("samples across batches in order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveBatch(ctx, store.Batch{ID: "b1", Name: "a.csv", CreatedAt: createdAt}, []domain.Sample{{SampleID: "A1"}}))
		require.NoError(t, s.SaveBatch(ctx, store.Batch{ID: "b2", Name: "b.xlsx", CreatedAt: createdAt.Add(time.Minute)}, []domain.Sample{{SampleID: "B1"}, {SampleID: "B2"}}))

		all, err := s.Samples(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"A1", "B1", "B2"}, []string{all[0].SampleID, all[1].SampleID, all[2].SampleID})
	})

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)
		all, err := s.Samples(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)

		batches, err := s.Batches(context.Background())
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("unknown batch", func(t *testing.T) {
		s := newStore(t)
		_, err := s.BatchSamples(context.Background(), "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.DeleteBatch(context.Background(), "missing"), store.ErrNotFound)
	})

	t.Run("delete batch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveBatch(ctx, store.Batch{ID: "b1", Name: "a.csv", CreatedAt: createdAt}, []domain.Sample{{SampleID: "A1"}}))
		require.NoError(t, s.SaveBatch(ctx, store.Batch{ID: "b2", Name: "b.csv", CreatedAt: createdAt}, []domain.Sample{{SampleID: "B1"}}))
		require.NoError(t, s.DeleteBatch(ctx, "b1"))

		_, err := s.BatchSamples(ctx, "b1")
		require.ErrorIs(t, err, store.ErrNotFound)

		all, err := s.Samples(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "B1", all[0].SampleID)
	})
}
