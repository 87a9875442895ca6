package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type voteRepository struct {
	db *sql.DB
}

// NewVoteRepository creates a new wishlist vote repository
func NewVoteRepository(db *sql.DB) repository.VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.WishlistVote, error) {
	query := `
		SELECT event_id, wishlist_id, user_id, created_at
		FROM wishlist_votes
		WHERE event_id = $1`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []*models.WishlistVote
	for rows.Next() {
		v := &models.WishlistVote{}
		if err := rows.Scan(&v.EventID, &v.WishlistID, &v.UserID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *voteRepository) Replace(ctx context.Context, eventID, userID int64, wishlistIDs []int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM wishlist_votes WHERE event_id = $1 AND user_id = $2`, eventID, userID); err != nil {
			return fmt.Errorf("failed to clear votes: %w", err)
		}

		if len(wishlistIDs) == 0 {
			return nil
		}

		query := `
			INSERT INTO wishlist_votes (event_id, wishlist_id, user_id, created_at)
			SELECT $1, unnest($3::bigint[]), $2, NOW()`
		if _, err := tx.ExecContext(ctx, query, eventID, userID, pq.Array(wishlistIDs)); err != nil {
			return duplicateOr(err, "failed to insert votes")
		}
		return nil
	})
}
