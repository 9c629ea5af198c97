// Package db persists analysis results in PostgreSQL. It doubles as the
// engine's cache store (content-addressed get/set with expiry) and as a
// listable history of past runs.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pagecanvas/imagerank/models"
)

// DB wraps the database connection and provides data access methods
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection and runs migrations
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Get implements cache.Store: it returns the payload stored under key when
// the entry exists and has not expired
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := db.conn.QueryRowContext(ctx, `
		SELECT payload FROM imagerank_analyses
		WHERE key = $1 AND expires_at > NOW()
	`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query analysis: %w", err)
	}
	return payload, true, nil
}

// Set implements cache.Store: it upserts the payload under key with the
// given TTL. The run id and image count are lifted out of the payload for
// listing without decoding.
func (db *DB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var meta struct {
		ID         string `json:"id"`
		ImageCount int    `json:"image_count"`
	}
	// Payload is always a JSON-encoded AnalysisResult; a decode failure here
	// just leaves the metadata columns empty.
	_ = json.Unmarshal(value, &meta)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO imagerank_analyses (key, run_id, image_count, payload, expires_at)
		VALUES ($1, $2, $3, $4, NOW() + $5 * INTERVAL '1 second')
		ON CONFLICT (key) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			image_count = EXCLUDED.image_count,
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, key, meta.ID, meta.ImageCount, value, int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// AnalysisSummary describes one persisted analysis run
type AnalysisSummary struct {
	Key        string    `json:"key"`
	RunID      string    `json:"run_id"`
	ImageCount int       `json:"image_count"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// List returns summaries of unexpired analysis runs, newest first
func (db *DB) List(ctx context.Context, limit, offset int) ([]AnalysisSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT key, run_id, image_count, created_at, expires_at
		FROM imagerank_analyses
		WHERE expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var summaries []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.Key, &s.RunID, &s.ImageCount, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetResult returns the decoded analysis result stored under key
func (db *DB) GetResult(ctx context.Context, key string) (*models.AnalysisResult, error) {
	payload, ok, err := db.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis payload: %w", err)
	}
	return &result, nil
}

// Count returns the number of unexpired analysis runs
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM imagerank_analyses WHERE expires_at > NOW()`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// DeleteExpired removes expired cache entries and returns how many were
// deleted. Intended to run from a periodic sweep.
func (db *DB) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM imagerank_analyses WHERE expires_at <= NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired analyses: %w", err)
	}
	return res.RowsAffected()
}

// SaveSectionRun records a section-matching result for later inspection
func (db *DB) SaveSectionRun(ctx context.Context, id string, result *models.SectionMatchingResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode section run: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO imagerank_section_runs (id, payload)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload
	`, id, payload)
	if err != nil {
		return fmt.Errorf("failed to save section run: %w", err)
	}
	return nil
}
