package identitycache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-web-template/users"
	_ "modernc.org/sqlite"
)

// Fixed width so TEXT comparison orders timestamps
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z"

var _ Repo = (*SQLiteRepo)(nil)

// SQLiteRepo persists identity records in a SQLite database
type SQLiteRepo struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLiteRepo opens (or creates) the database at path and runs migrations
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("identitycache: create folder: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("identitycache: open DB: %w", err)
	}

	ctx := context.Background()
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identitycache: set busy_timeout: %w", err)
	}

	r := &SQLiteRepo{db: db, nowFunc: time.Now}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identitycache: migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepo) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS identities (
		session_id TEXT PRIMARY KEY,
		record     TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS identities_updated_at ON identities(updated_at);`

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *SQLiteRepo) Get(ctx context.Context, sessionID string) (*users.User, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT record FROM identities WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[identitycache Get] query: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("[identitycache Get] decode record: %w", err)
	}
	return rec.User, nil
}

func (r *SQLiteRepo) Upsert(ctx context.Context, sessionID string, user *users.User) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	data, err := json.Marshal(record{User: user})
	if err != nil {
		return fmt.Errorf("[identitycache Upsert] encode record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO identities (session_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		sessionID, string(data), r.nowFunc().UTC().Format(dbTimeLayout))
	if err != nil {
		return fmt.Errorf("[identitycache Upsert] exec: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("[identitycache Delete] exec: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) DeleteOlderThan(ctx context.Context, t time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE updated_at < ?`, t.UTC().Format(dbTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("[identitycache DeleteOlderThan] exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("[identitycache DeleteOlderThan] rows: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
