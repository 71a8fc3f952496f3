package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/sqlite"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store/storetest"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openStore(t, filepath.Join(t.TempDir(), "hmpi.db"))
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hmpi.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	samples := []domain.Sample{{SampleID: "G1", Location: "Kanpur", As: 12.5, Zn: 400}}
	require.NoError(t, first.SaveBatch(ctx, store.Batch{ID: "b1", Name: "survey.csv", CreatedAt: time.Now()}, samples))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	got, err := second.BatchSamples(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestStore_DuplicateBatchRejected(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "hmpi.db"))
	ctx := context.Background()

	batch := store.Batch{ID: "b1", Name: "survey.csv", CreatedAt: time.Now()}
	require.NoError(t, s.SaveBatch(ctx, batch, []domain.Sample{{SampleID: "G1"}}))
	require.Error(t, s.SaveBatch(ctx, batch, []domain.Sample{{SampleID: "G2"}}))

	got, err := s.BatchSamples(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 1, "failed save must not leave partial rows")
	assert.Equal(t, "G1", got[0].SampleID)
}
