package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Alpho052/career-guidance-platform/internal/db"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// SQLiteRepo implements repository.Store using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *zap.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.Store = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *zap.Logger) *SQLiteRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() time.Time {
	return time.Now().UTC()
}

func millis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return millis(*t)
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// stamp assigns an id when missing and sets both timestamps on insert.
func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	t := now()
	if created.IsZero() {
		*created = t
	}
	*updated = t
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

// isUnique reports whether err is a uniqueness or primary key violation.
func isUnique(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// insertErr maps constraint failures to repository.ErrDuplicate.
func insertErr(op string, err error) error {
	if isUnique(err) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected turns a zero row count into repository.ErrNotFound.
func affected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// queryAll runs q and collects one value per row with scan.
func queryAll[T any](ctx context.Context, r *SQLiteRepo, op string, scan func(scanner) (T, error), q string, args ...any) ([]T, error) {
	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// queryOne returns nil, nil when q matches no row.
func queryOne[T any](ctx context.Context, r *SQLiteRepo, op string, scan func(scanner) (T, error), q string, args ...any) (*T, error) {
	v, err := scan(r.conn.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (r *SQLiteRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
