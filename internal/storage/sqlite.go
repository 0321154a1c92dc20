//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"gasweep/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
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

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveExperiment(ctx context.Context, experiment model.Experiment) error {
	if experiment.ID == "" {
		return errors.New("experiment id is required")
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeExperiment(experiment)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO experiments (id, schema_version, codec_version, started_at_utc, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			started_at_utc = excluded.started_at_utc,
			payload = excluded.payload
	`, experiment.ID, experiment.SchemaVersion, experiment.CodecVersion, experiment.StartedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (model.Experiment, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Experiment{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM experiments WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Experiment{}, false, nil
		}
		return model.Experiment{}, false, err
	}

	experiment, err := DecodeExperiment(payload)
	if err != nil {
		return model.Experiment{}, false, fmt.Errorf("decode experiment %s: %w", id, err)
	}
	return experiment, true, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]model.Experiment, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM experiments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experiments := make([]model.Experiment, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		experiment, err := DecodeExperiment(payload)
		if err != nil {
			return nil, fmt.Errorf("decode experiment %s: %w", id, err)
		}
		experiments = append(experiments, experiment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortExperiments(experiments)
	return experiments, nil
}

func (s *SQLiteStore) SaveRunRecords(ctx context.Context, experimentID string, records []model.RunRecord) error {
	return s.putPayload(ctx, "run_records", "experiment_id", experimentID, func() ([]byte, error) {
		return EncodeRunRecords(records)
	})
}

func (s *SQLiteStore) GetRunRecords(ctx context.Context, experimentID string) ([]model.RunRecord, bool, error) {
	payload, ok, err := s.getPayload(ctx, "run_records", "experiment_id", experimentID)
	if err != nil || !ok {
		return nil, ok, err
	}
	records, err := DecodeRunRecords(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode run records %s: %w", experimentID, err)
	}
	return records, true, nil
}

func (s *SQLiteStore) SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	return s.putPayload(ctx, "generation_diagnostics", "run_id", runID, func() ([]byte, error) {
		return EncodeGenerationDiagnostics(diagnostics)
	})
}

func (s *SQLiteStore) GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	payload, ok, err := s.getPayload(ctx, "generation_diagnostics", "run_id", runID)
	if err != nil || !ok {
		return nil, ok, err
	}
	diagnostics, err := DecodeGenerationDiagnostics(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode diagnostics %s: %w", runID, err)
	}
	return diagnostics, true, nil
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

// putPayload upserts into a two-column (key, payload) table. Table and key
// names are package constants, never user input.
func (s *SQLiteStore) putPayload(ctx context.Context, table, keyColumn, key string, encode func() ([]byte, error)) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := encode()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, payload)
		VALUES (?, ?)
		ON CONFLICT(%[2]s) DO UPDATE SET
			payload = excluded.payload
	`, table, keyColumn), key, payload)
	return err
}

func (s *SQLiteStore) getPayload(ctx context.Context, table, keyColumn, key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE %s = ?`, table, keyColumn)
	if err := db.QueryRowContext(ctx, query, key).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiments (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			started_at_utc TEXT NOT NULL DEFAULT '',
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS run_records (
			experiment_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generation_diagnostics (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
