package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// PGStore handles model persistence using PostgreSQL
type PGStore struct {
	pool    *pgxpool.Pool
	metrics OperationRecorder
}

// NewPGStore creates a new PostgreSQL-backed model store
func NewPGStore(ctx context.Context, databaseURL string, metrics OperationRecorder) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool, metrics: recorderOrNop(metrics)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tmhmm_models (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		states INTEGER NOT NULL,
		alphabet TEXT NOT NULL,
		smoothed BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		payload BYTEA NOT NULL
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Save stores m under name, replacing any previous model with that name.
func (s *PGStore) Save(ctx context.Context, name string, m *model.Model) (rec Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "save", start, err) }(time.Now())
	if name == "" {
		return Record{}, ErrEmptyName
	}
	payload, rec, err := Encode(name, m)
	if err != nil {
		return Record{}, err
	}

	query := `
		INSERT INTO tmhmm_models (name, id, schema_version, codec_version, states, alphabet, smoothed, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			id = EXCLUDED.id,
			schema_version = EXCLUDED.schema_version,
			codec_version = EXCLUDED.codec_version,
			states = EXCLUDED.states,
			alphabet = EXCLUDED.alphabet,
			smoothed = EXCLUDED.smoothed,
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload
	`
	_, err = s.pool.Exec(ctx, query,
		rec.Name,
		rec.ID,
		CurrentSchemaVersion,
		CurrentCodecVersion,
		rec.States,
		rec.Alphabet,
		rec.Smoothed,
		rec.CreatedAt,
		payload,
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to save model: %w", err)
	}

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tmhmm_models`).Scan(&n); err == nil {
		s.metrics.SetStoredModels(n)
	}
	return rec, nil
}

// Load retrieves a model by name
func (s *PGStore) Load(ctx context.Context, name string) (m *model.Model, err error) {
	defer func(start time.Time) { observe(s.metrics, "load", start, err) }(time.Now())

	var payload []byte
	err = s.pool.QueryRow(ctx, `SELECT payload FROM tmhmm_models WHERE name = $1`, name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	m, _, err = Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode model %s: %w", name, err)
	}
	return m, nil
}

// List returns all stored models ordered by name
func (s *PGStore) List(ctx context.Context) (_ []Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "list", start, err) }(time.Now())

	query := `
		SELECT id, name, states, alphabet, smoothed, created_at
		FROM tmhmm_models
		ORDER BY name
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.States, &rec.Alphabet, &rec.Smoothed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}
	return out, nil
}

// Close closes the database connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
