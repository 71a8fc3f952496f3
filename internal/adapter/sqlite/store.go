// Package sqlite implements store.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

// Store keeps batches and samples in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			sample_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			sample_id TEXT NOT NULL,
			location TEXT NOT NULL,
			longitude REAL NOT NULL,
			latitude REAL NOT NULL,
			ph REAL NOT NULL,
			ec REAL NOT NULL,
			tds REAL NOT NULL,
			as_ugl REAL NOT NULL,
			cd_ugl REAL NOT NULL,
			cr_ugl REAL NOT NULL,
			cu_ugl REAL NOT NULL,
			fe_ugl REAL NOT NULL,
			mn_ugl REAL NOT NULL,
			ni_ugl REAL NOT NULL,
			pb_ugl REAL NOT NULL,
			zn_ugl REAL NOT NULL,
			heavy_metal_index REAL NOT NULL,
			PRIMARY KEY (batch_id, position)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) SaveBatch(ctx context.Context, batch store.Batch, samples []domain.Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, name, sample_count, created_at) VALUES (?, ?, ?, ?)`,
		batch.ID, batch.Name, len(samples), batch.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, sample := range samples {
		args := append([]any{batch.ID, i}, store.SampleValues(sample)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

var insertSampleSQL = fmt.Sprintf(
	`INSERT INTO samples (batch_id, position, %s) VALUES (?, ?%s)`,
	strings.Join(store.SampleColumns, ", "),
	strings.Repeat(", ?", len(store.SampleColumns)),
)

var selectSampleColumns = "s." + strings.Join(store.SampleColumns, ", s.")

func (s *Store) Samples(ctx context.Context) ([]domain.Sample, error) {
	return s.querySamples(ctx, `SELECT `+selectSampleColumns+`
		FROM samples s JOIN batches b ON b.id = s.batch_id
		ORDER BY b.seq, s.position`)
}

func (s *Store) BatchSamples(ctx context.Context, id string) ([]domain.Sample, error) {
	if err := s.batchExists(ctx, id); err != nil {
		return nil, err
	}
	return s.querySamples(ctx, `SELECT `+selectSampleColumns+`
		FROM samples s WHERE s.batch_id = ?
		ORDER BY s.position`, id)
}

func (s *Store) querySamples(ctx context.Context, query string, args ...any) ([]domain.Sample, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Store) batchExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM batches WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) Batches(ctx context.Context) ([]store.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sample_count, created_at FROM batches ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	out := make([]store.Batch, 0)
	for rows.Next() {
		var (
			b       store.Batch
			created string
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Count, &created); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at of batch %s: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete batch %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
