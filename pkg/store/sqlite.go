package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// SQLiteStore keeps models in a single SQLite database file.
type SQLiteStore struct {
	path    string
	metrics OperationRecorder

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string, metrics OperationRecorder) *SQLiteStore {
	return &SQLiteStore{path: path, metrics: recorderOrNop(metrics)}
}

// OpenSQLite creates and initializes a SQLiteStore.
func OpenSQLite(ctx context.Context, path string, metrics OperationRecorder) (*SQLiteStore, error) {
	s := NewSQLiteStore(path, metrics)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createSQLiteTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, name string, m *model.Model) (rec Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "save", start, err) }(time.Now())
	if name == "" {
		return Record{}, ErrEmptyName
	}
	db, err := s.getDB()
	if err != nil {
		return Record{}, err
	}
	payload, rec, err := Encode(name, m)
	if err != nil {
		return Record{}, err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO models (name, id, schema_version, codec_version, states, alphabet, smoothed, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			states = excluded.states,
			alphabet = excluded.alphabet,
			smoothed = excluded.smoothed,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, rec.Name, rec.ID, CurrentSchemaVersion, CurrentCodecVersion, rec.States, rec.Alphabet,
		rec.Smoothed, rec.CreatedAt.Format(time.RFC3339Nano), payload)
	if err != nil {
		return Record{}, err
	}
	s.refreshCount(ctx, db)
	return rec, nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (m *model.Model, err error) {
	defer func(start time.Time) { observe(s.metrics, "load", start, err) }(time.Now())
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM models WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m, _, err = Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode model %s: %w", name, err)
	}
	return m, nil
}

func (s *SQLiteStore) List(ctx context.Context) (_ []Record, err error) {
	defer func(start time.Time) { observe(s.metrics, "list", start, err) }(time.Now())

	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, states, alphabet, smoothed, created_at
		FROM models ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.States, &rec.Alphabet, &rec.Smoothed, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("model %s created_at: %w", rec.Name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQLiteStore) refreshCount(ctx context.Context, db *sql.DB) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n); err == nil {
		s.metrics.SetStoredModels(n)
	}
}

func createSQLiteTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			states INTEGER NOT NULL,
			alphabet TEXT NOT NULL,
			smoothed INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
