package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
)

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// duplicateOr maps unique violations to repository.ErrDuplicate and wraps
// everything else with msg.
func duplicateOr(err error, msg string) error {
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// keyset returns the WHERE fragment and ORDER BY for a (created_at, id)
// window over alias. Prev windows read newer rows in ascending order.
func keyset(alias string, f repository.CursorFilters, next int) (where string, order string, args []any) {
	desc := fmt.Sprintf("ORDER BY %[1]s.created_at DESC, %[1]s.id DESC", alias)
	asc := fmt.Sprintf("ORDER BY %[1]s.created_at ASC, %[1]s.id ASC", alias)

	if f.Cursor == nil {
		if f.Direction == pagination.Prev {
			return "", asc, nil
		}
		return "", desc, nil
	}

	args = []any{f.Cursor.CreatedAt, f.Cursor.ID}
	if f.Direction == pagination.Prev {
		where = fmt.Sprintf(" AND (%[1]s.created_at, %[1]s.id) > ($%[2]d, $%[3]d)", alias, next, next+1)
		return where, asc, args
	}
	where = fmt.Sprintf(" AND (%[1]s.created_at, %[1]s.id) < ($%[2]d, $%[3]d)", alias, next, next+1)
	return where, desc, args
}
