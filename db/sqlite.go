package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"cardiocheck/inference"
	_ "github.com/mattn/go-sqlite3"
)

// Journal records every model load attempt in SQLite.
type Journal struct {
	database *sql.DB
}

// ModelLoad is one journal row.
type ModelLoad struct {
	ID            int64     `json:"id"`
	Generation    uint64    `json:"generation"`
	ModelType     string    `json:"model_type"`
	ModelPath     string    `json:"model_path"`
	FeaturesPath  string    `json:"features_path"`
	SchemaVersion string    `json:"schema_version,omitempty"`
	Features      int       `json:"features"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Open opens (creating if needed) the SQLite journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS model_loads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        generation INTEGER NOT NULL,
        model_type VARCHAR(50),
        model_path TEXT NOT NULL,
        features_path TEXT NOT NULL,
        schema_version VARCHAR(50),
        features INTEGER DEFAULT 0,
        success INTEGER NOT NULL,
        error TEXT,
        duration_ms INTEGER DEFAULT 0,
        loaded_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_model_loads_loaded_at ON model_loads(loaded_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Journal{database: database}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.database == nil {
		return nil
	}
	return j.database.Close()
}

// RecordModelLoad implements inference.LoadRecorder.
func (j *Journal) RecordModelLoad(ctx context.Context, event inference.LoadEvent) error {
	if j == nil || j.database == nil {
		return errors.New("database not initialized")
	}
	_, err := j.database.ExecContext(ctx, `
        INSERT INTO model_loads (
            generation, model_type, model_path, features_path, schema_version,
            features, success, error, duration_ms, loaded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Generation, event.ModelType, event.ModelPath, event.FeaturesPath, event.SchemaVersion,
		event.Features, event.Success, event.Error, event.Duration.Milliseconds(), event.StartedAt.UTC())
	return err
}

// RecentModelLoads returns up to limit rows, newest first.
func (j *Journal) RecentModelLoads(ctx context.Context, limit int) ([]ModelLoad, error) {
	if j == nil || j.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.database.QueryContext(ctx, `
        SELECT id, generation, model_type, model_path, features_path, schema_version,
               features, success, error, duration_ms, loaded_at
        FROM model_loads
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]ModelLoad, 0)
	for rows.Next() {
		var l ModelLoad
		var modelType, schemaVersion, loadErr sql.NullString
		err := rows.Scan(&l.ID, &l.Generation, &modelType, &l.ModelPath, &l.FeaturesPath, &schemaVersion,
			&l.Features, &l.Success, &loadErr, &l.DurationMS, &l.LoadedAt)
		if err != nil {
			return nil, err
		}
		l.ModelType = modelType.String
		l.SchemaVersion = schemaVersion.String
		l.Error = loadErr.String
		loads = append(loads, l)
	}
	return loads, rows.Err()
}
