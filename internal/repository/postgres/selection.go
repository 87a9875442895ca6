package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Kerhoff/moamoa/internal/repository"
)

type selectionRepository struct {
	db *sql.DB
}

// NewSelectionRepository creates a new selected item repository
func NewSelectionRepository(db *sql.DB) repository.SelectionRepository {
	return &selectionRepository{db: db}
}

func (r *selectionRepository) ListWishlistIDs(ctx context.Context, eventID int64) ([]int64, error) {
	query := `
		SELECT wishlist_id
		FROM birthday_event_selected_items
		WHERE event_id = $1
		ORDER BY wishlist_id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selected items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan selected item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *selectionRepository) Replace(ctx context.Context, eventID int64, wishlistIDs []int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM birthday_event_selected_items WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("failed to clear selected items: %w", err)
		}

		if len(wishlistIDs) == 0 {
			return nil
		}

		query := `
			INSERT INTO birthday_event_selected_items (event_id, wishlist_id, created_at)
			SELECT $1, unnest($2::bigint[]), NOW()`
		if _, err := tx.ExecContext(ctx, query, eventID, pq.Array(wishlistIDs)); err != nil {
			return duplicateOr(err, "failed to insert selected items")
		}
		return nil
	})
}
