package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/infrastructure/resilience"
)

const schemaLockKey int64 = 2026101901

type CredentialRepository struct {
	db    *sql.DB
	guard *resilience.Guard
}

// NewCredentialRepository wraps db. guard may be nil, in which case every
// statement runs exactly once.
func NewCredentialRepository(db *sql.DB, guard *resilience.Guard) *CredentialRepository {
	return &CredentialRepository{db: db, guard: guard}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CredentialRepository) CreateCredential(ctx context.Context, cred domain.Credential) error {
	var inserted int64
	err := r.guard.Do(ctx, "postgres.create_credential", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash)
VALUES ($1, $2)
ON CONFLICT (username) DO NOTHING
`, cred.Username, cred.PasswordHash)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		inserted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert user rows affected: %w", err)
		}
		return nil
	}, classifyPostgresError)
	if err != nil {
		return temporaryIfNeeded("create credential", err)
	}
	if inserted == 0 {
		return domain.WrapError(domain.ErrUsernameTaken, "create credential", fmt.Errorf("username=%s", cred.Username))
	}
	return nil
}

func (r *CredentialRepository) GetCredential(ctx context.Context, username string) (*domain.Credential, error) {
	cred, err := resilience.Call(ctx, r.guard, "postgres.get_credential", func(ctx context.Context) (domain.Credential, error) {
		var out domain.Credential
		err := r.db.QueryRowContext(ctx, `
SELECT username, password_hash
FROM users
WHERE username = $1
`, username).Scan(&out.Username, &out.PasswordHash)
		return out, err
	}, classifyPostgresError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get credential", fmt.Errorf("username=%s", username))
		}
		return nil, temporaryIfNeeded("get credential", err)
	}
	return &cred, nil
}

// classifyPostgresError retries connection-level failures (SQLSTATE class 08)
// and server shutdown; everything else is final.
func classifyPostgresError(err error) resilience.Verdict {
	switch {
	case err == nil:
		return resilience.Verdict{}
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return resilience.Verdict{}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		if len(code) >= 2 && (code[:2] == "08" || code[:2] == "57") {
			return resilience.Verdict{Retry: true, CountsAsFault: true}
		}
		return resilience.Verdict{}
	}
	if pgconn.Timeout(err) || errors.Is(err, sql.ErrConnDone) {
		return resilience.Verdict{Retry: true, CountsAsFault: true}
	}
	return resilience.Verdict{CountsAsFault: true}
}

func temporaryIfNeeded(op string, err error) error {
	if resilience.IsOpen(err) || classifyPostgresError(err).Retry {
		return domain.WrapError(domain.ErrTemporary, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
