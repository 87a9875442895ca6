package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type purchaseProofRepository struct {
	db *sql.DB
}

// NewPurchaseProofRepository creates a new purchase proof repository
func NewPurchaseProofRepository(db *sql.DB) repository.PurchaseProofRepository {
	return &purchaseProofRepository{db: db}
}

func (r *purchaseProofRepository) Create(ctx context.Context, p *models.PurchaseProof, notifications []*models.Notification) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO purchase_proofs (event_id, proof_images, message, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query, p.EventID, pq.Array(p.ProofImages), p.Message, time.Now()).
			Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return duplicateOr(err, "failed to create purchase proof")
		}

		update := `UPDATE birthday_events SET need_certification = FALSE, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, p.EventID, time.Now()); err != nil {
			return fmt.Errorf("failed to clear certification flag: %w", err)
		}

		for _, n := range notifications {
			if err := insertNotification(ctx, tx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *purchaseProofRepository) GetByEvent(ctx context.Context, eventID int64) (*models.PurchaseProof, error) {
	query := `
		SELECT id, event_id, proof_images, message, created_at
		FROM purchase_proofs
		WHERE event_id = $1`

	p := &models.PurchaseProof{}
	err := r.db.QueryRowContext(ctx, query, eventID).
		Scan(&p.ID, &p.EventID, pq.Array(&p.ProofImages), &p.Message, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase proof: %w", err)
	}
	return p, nil
}
