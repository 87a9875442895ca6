package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type shareTokenRepository struct {
	db *sql.DB
}

// NewShareTokenRepository creates a new share link repository
func NewShareTokenRepository(db *sql.DB) repository.ShareTokenRepository {
	return &shareTokenRepository{db: db}
}

func (r *shareTokenRepository) Create(ctx context.Context, t *models.ShareToken, now time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		purge := `DELETE FROM event_share_tokens WHERE event_id = $1 AND expires_at < $2`
		if _, err := tx.ExecContext(ctx, purge, t.EventID, now); err != nil {
			return fmt.Errorf("failed to purge share tokens: %w", err)
		}

		query := `
			INSERT INTO event_share_tokens (token, event_id, created_by, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`

		err := tx.QueryRowContext(ctx, query, t.Token, t.EventID, t.CreatedBy, t.ExpiresAt, now).
			Scan(&t.CreatedAt)
		if err != nil {
			return duplicateOr(err, "failed to create share token")
		}
		return nil
	})
}

func (r *shareTokenRepository) Get(ctx context.Context, token string) (*models.ShareToken, error) {
	query := `
		SELECT token, event_id, created_by, expires_at, created_at
		FROM event_share_tokens
		WHERE token = $1`

	t := &models.ShareToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&t.Token, &t.EventID, &t.CreatedBy, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get share token: %w", err)
	}
	return t, nil
}
