package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type searchHistoryRepository struct {
	db *sql.DB
}

// NewSearchHistoryRepository creates a new search history repository
func NewSearchHistoryRepository(db *sql.DB) repository.SearchHistoryRepository {
	return &searchHistoryRepository{db: db}
}

func (r *searchHistoryRepository) Record(ctx context.Context, userID int64, term string, keep int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		upsert := `
			INSERT INTO search_histories (user_id, search_term, searched_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, search_term) DO UPDATE SET searched_at = EXCLUDED.searched_at`

		if _, err := tx.ExecContext(ctx, upsert, userID, term, time.Now()); err != nil {
			return fmt.Errorf("failed to record search term: %w", err)
		}

		trim := `
			DELETE FROM search_histories
			WHERE user_id = $1 AND id NOT IN (
				SELECT id FROM search_histories
				WHERE user_id = $1
				ORDER BY searched_at DESC, id DESC
				LIMIT $2)`

		if _, err := tx.ExecContext(ctx, trim, userID, keep); err != nil {
			return fmt.Errorf("failed to trim search history: %w", err)
		}
		return nil
	})
}

func (r *searchHistoryRepository) List(ctx context.Context, userID int64, limit int) ([]*models.SearchHistory, error) {
	query := `
		SELECT id, user_id, search_term, searched_at
		FROM search_histories
		WHERE user_id = $1
		ORDER BY searched_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var histories []*models.SearchHistory
	for rows.Next() {
		h := &models.SearchHistory{}
		if err := rows.Scan(&h.ID, &h.UserID, &h.SearchTerm, &h.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

func (r *searchHistoryRepository) GetByID(ctx context.Context, id int64) (*models.SearchHistory, error) {
	query := `SELECT id, user_id, search_term, searched_at FROM search_histories WHERE id = $1`

	h := &models.SearchHistory{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.UserID, &h.SearchTerm, &h.SearchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search history by ID: %w", err)
	}
	return h, nil
}

func (r *searchHistoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_histories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete search history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("search history with ID %d not found", id)
	}
	return nil
}

func (r *searchHistoryRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_histories WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
