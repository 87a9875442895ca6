package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type dispositionRepository struct {
	db *sql.DB
}

// NewDispositionRepository creates a new leftover fund repository
func NewDispositionRepository(db *sql.DB) repository.DispositionRepository {
	return &dispositionRepository{db: db}
}

func (r *dispositionRepository) IsProcessed(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM remaining_amount_processes WHERE event_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check remaining amount process: %w", err)
	}
	return exists, nil
}

// claim inserts the guard row; a second claim for the event fails with
// repository.ErrDuplicate.
func claim(ctx context.Context, tx *sql.Tx, p models.RemainingAmountProcess) error {
	query := `
		INSERT INTO remaining_amount_processes (event_id, user_id, process_type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctx, query, p.EventID, p.UserID, p.ProcessType, p.Amount, p.CreatedAt); err != nil {
		return duplicateOr(err, "failed to record remaining amount process")
	}
	return nil
}

// settleBalance clears the event's leftover flag once its remainder has been
// handled.
func settleBalance(ctx context.Context, tx *sql.Tx, eventID int64, now time.Time) error {
	query := `UPDATE birthday_events SET need_balance = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, eventID, now); err != nil {
		return fmt.Errorf("failed to clear balance flag: %w", err)
	}
	return nil
}

func (r *dispositionRepository) Donate(ctx context.Context, d *models.Donation) error {
	now := time.Now()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := claim(ctx, tx, models.RemainingAmountProcess{
			EventID:     d.EventID,
			UserID:      d.UserID,
			ProcessType: models.ProcessDonate,
			Amount:      d.Amount,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := settleBalance(ctx, tx, d.EventID, now); err != nil {
			return err
		}

		query := `
			INSERT INTO donations (event_id, user_id, organization_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`

		if err := tx.QueryRowContext(ctx, query, d.EventID, d.UserID, d.OrganizationID, d.Amount, now).
			Scan(&d.ID, &d.CreatedAt); err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		return nil
	})
}

func (r *dispositionRepository) ConvertToCoins(ctx context.Context, c *models.CoinConversion) error {
	now := time.Now()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := claim(ctx, tx, models.RemainingAmountProcess{
			EventID:     c.EventID,
			UserID:      c.UserID,
			ProcessType: models.ProcessConvertToCoin,
			Amount:      c.Amount,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := settleBalance(ctx, tx, c.EventID, now); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE users SET coins = coins + $2, updated_at = $3 WHERE id = $1`, c.UserID, c.Coins, now)
		if err != nil {
			return fmt.Errorf("failed to credit coins: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("user with ID %d not found", c.UserID)
		}

		history := `
			INSERT INTO point_histories (user_id, kind, amount, coins, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, history, c.UserID, string(models.ProcessConvertToCoin), c.Amount, c.Coins,
			fmt.Sprintf("event %d remaining amount", c.EventID), now); err != nil {
			return fmt.Errorf("failed to record point history: %w", err)
		}

		query := `
			INSERT INTO coin_conversions (event_id, user_id, amount, coins, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`
		if err := tx.QueryRowContext(ctx, query, c.EventID, c.UserID, c.Amount, c.Coins, now).
			Scan(&c.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to create coin conversion: %w", err)
		}
		return nil
	})
}
