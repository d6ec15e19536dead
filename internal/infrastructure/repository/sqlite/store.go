// Package sqlite stores credentials in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/infrastructure/repository/sqlite/migrations"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateCredential(ctx context.Context, cred domain.Credential) error {
	result, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)
ON CONFLICT(username) DO NOTHING
`, cred.Username, cred.PasswordHash, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user rows affected: %w", err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrUsernameTaken, "create credential", fmt.Errorf("username=%s", cred.Username))
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, username string) (*domain.Credential, error) {
	var cred domain.Credential
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash FROM users WHERE username = ?`, username,
	).Scan(&cred.Username, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get credential", fmt.Errorf("username=%s", username))
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &cred, nil
}
