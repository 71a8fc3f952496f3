// Package postgres implements store.Store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS hmpi`,
	`CREATE TABLE IF NOT EXISTS hmpi.batches (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		sample_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hmpi.samples (
		batch_id TEXT NOT NULL REFERENCES hmpi.batches(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		sample_id TEXT NOT NULL,
		location TEXT NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		ph DOUBLE PRECISION NOT NULL,
		ec DOUBLE PRECISION NOT NULL,
		tds DOUBLE PRECISION NOT NULL,
		as_ugl DOUBLE PRECISION NOT NULL,
		cd_ugl DOUBLE PRECISION NOT NULL,
		cr_ugl DOUBLE PRECISION NOT NULL,
		cu_ugl DOUBLE PRECISION NOT NULL,
		fe_ugl DOUBLE PRECISION NOT NULL,
		mn_ugl DOUBLE PRECISION NOT NULL,
		ni_ugl DOUBLE PRECISION NOT NULL,
		pb_ugl DOUBLE PRECISION NOT NULL,
		zn_ugl DOUBLE PRECISION NOT NULL,
		heavy_metal_index DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (batch_id, position)
	)`,
}

func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveBatch inserts the batch row and queues every sample insert on a
// single pgx.Batch inside one transaction.
func (s *Store) SaveBatch(ctx context.Context, batch store.Batch, samples []domain.Sample) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`INSERT INTO hmpi.batches (id, name, sample_count, created_at) VALUES ($1, $2, $3, $4)`,
		batch.ID, batch.Name, len(samples), batch.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}

	if len(samples) > 0 {
		b := &pgx.Batch{}
		for i, sample := range samples {
			b.Queue(insertSampleSQL, append([]any{batch.ID, i}, store.SampleValues(sample)...)...)
		}

		res := tx.SendBatch(ctx, b)
		for i := range samples {
			if _, err := res.Exec(); err != nil {
				res.Close()
				return fmt.Errorf("insert sample %d: %w", i, err)
			}
		}
		if err := res.Close(); err != nil {
			return fmt.Errorf("close batch results: %w", err)
		}
	}

	return tx.Commit(ctx)
}

var insertSampleSQL = buildInsertSampleSQL()

func buildInsertSampleSQL() string {
	placeholders := make([]string, 0, len(store.SampleColumns)+2)
	for i := 1; i <= len(store.SampleColumns)+2; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	return fmt.Sprintf(`INSERT INTO hmpi.samples (batch_id, position, %s) VALUES (%s)`,
		strings.Join(store.SampleColumns, ", "), strings.Join(placeholders, ","))
}

var selectSampleColumns = "s." + strings.Join(store.SampleColumns, ", s.")

func (s *Store) Samples(ctx context.Context) ([]domain.Sample, error) {
	return s.querySamples(ctx, `SELECT `+selectSampleColumns+`
FROM hmpi.samples s JOIN hmpi.batches b ON b.id = s.batch_id
ORDER BY b.seq, s.position`)
}

func (s *Store) BatchSamples(ctx context.Context, id string) ([]domain.Sample, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hmpi.batches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup batch %s: %w", id, err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.querySamples(ctx, `SELECT `+selectSampleColumns+`
FROM hmpi.samples s WHERE s.batch_id = $1
ORDER BY s.position`, id)
}

func (s *Store) querySamples(ctx context.Context, query string, args ...any) ([]domain.Sample, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Sample, 0)
	for rows.Next() {
		var sample domain.Sample
		if err := rows.Scan(store.SampleDest(&sample)...); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func (s *Store) Batches(ctx context.Context) ([]store.Batch, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, sample_count, created_at FROM hmpi.batches ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	out := make([]store.Batch, 0)
	for rows.Next() {
		var b store.Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.Count, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM hmpi.batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close releases the pool resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
