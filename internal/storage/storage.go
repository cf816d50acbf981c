// Package storage archives published report texts in SQLite.
//
// Each report is stored with a SHA-256 digest of its body so the publisher can
// tell whether an identical text already went out recently. The archive is
// bounded: Rotate drops the oldest rows beyond the configured maximum.
// Dump writes the archive to a JSON file atomically (temp file + rename).
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/rewired-gh/readiness/internal/models"
)

// ErrNotFound is returned when no report matches a lookup
var ErrNotFound = errors.New("report not found")

const schema = `CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	digest TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_kind_created ON reports (kind, created_at);
CREATE INDEX IF NOT EXISTS reports_digest ON reports (digest)`

// Storage is a SQLite-backed report archive. It is safe for concurrent use.
type Storage struct {
	db         *sql.DB
	path       string
	maxReports int
	now        func() time.Time
}

// DumpFile is the JSON layout written by Dump
type DumpFile struct {
	Version string          `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Reports []models.Report `json:"reports"`
}

// New opens (creating if needed) the archive at path
func New(path string, maxReports int) (*Storage, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "readiness", "readiness.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}

	return &Storage{db: db, path: path, maxReports: maxReports, now: time.Now}, nil
}

// Close releases the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// Digest returns the hex SHA-256 of a report body
func Digest(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Record archives body under kind and returns the stored report
func (s *Storage) Record(ctx context.Context, kind, body string) (models.Report, error) {
	r := models.Report{
		ID:        uuid.New().String(),
		Kind:      kind,
		Digest:    Digest(body),
		Body:      body,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := r.Validate(); err != nil {
		return models.Report{}, fmt.Errorf("invalid report: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, kind, digest, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.Digest, r.Body, r.CreatedAt.UnixMilli())
	if err != nil {
		return models.Report{}, fmt.Errorf("insert report: %w", err)
	}

	if err := s.Rotate(ctx); err != nil {
		return r, err
	}
	return r, nil
}

// Latest returns the newest report of kind
func (s *Storage) Latest(ctx context.Context, kind string) (models.Report, error) {
	reports, err := s.List(ctx, kind, 1)
	if err != nil {
		return models.Report{}, err
	}
	if len(reports) == 0 {
		return models.Report{}, ErrNotFound
	}
	return reports[0], nil
}

// List returns up to limit reports, newest first. An empty kind matches all
// kinds; a non-positive limit returns everything.
func (s *Storage) List(ctx context.Context, kind string, limit int) ([]models.Report, error) {
	query := `SELECT id, kind, digest, body, created_at FROM reports`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var r models.Report
		var created int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Digest, &r.Body, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// SentWithin reports whether a report with digest was archived less than
// window ago
func (s *Storage) SentWithin(ctx context.Context, digest string, window time.Duration) (bool, error) {
	since := s.now().Add(-window).UnixMilli()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE digest = ? AND created_at > ?`, digest, since).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count reports: %w", err)
	}
	return n > 0, nil
}

// Rotate removes the oldest reports exceeding the configured maximum
func (s *Storage) Rotate(ctx context.Context) error {
	if s.maxReports <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE rowid NOT IN (
			SELECT rowid FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, s.maxReports)
	if err != nil {
		return fmt.Errorf("rotate reports: %w", err)
	}
	return nil
}

// Dump writes every archived report to path as JSON
func (s *Storage) Dump(ctx context.Context, path string) error {
	reports, err := s.List(ctx, "", 0)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	data, err := json.MarshalIndent(DumpFile{
		Version: "1.0",
		SavedAt: s.now().UTC(),
		Reports: reports,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
