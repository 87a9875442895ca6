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

type participantRepository struct {
	db *sql.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *sql.DB) repository.ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Get(ctx context.Context, eventID, userID int64) (*models.Participant, error) {
	query := `
		SELECT event_id, user_id, participation_type, amount, message, created_at
		FROM birthday_event_participants
		WHERE event_id = $1 AND user_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&p.EventID,
		&p.UserID,
		&p.ParticipationType,
		&p.Amount,
		&p.Message,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (r *participantRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Participant, error) {
	query := `
		SELECT p.event_id, p.user_id, p.participation_type, p.amount, p.message, p.created_at,
		       u.name, u.handle, u.photo_url
		FROM birthday_event_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{User: &models.User{}}
		if err := rows.Scan(
			&p.EventID,
			&p.UserID,
			&p.ParticipationType,
			&p.Amount,
			&p.Message,
			&p.CreatedAt,
			&p.User.Name,
			&p.User.Handle,
			&p.User.PhotoURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.User.ID = p.UserID
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) JoinedEventIDs(ctx context.Context, userID int64, eventIDs []int64) (map[int64]bool, error) {
	joined := make(map[int64]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return joined, nil
	}

	query := `
		SELECT event_id
		FROM birthday_event_participants
		WHERE user_id = $1 AND event_id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query joined events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan joined event: %w", err)
		}
		joined[id] = true
	}
	return joined, rows.Err()
}

func (r *participantRepository) Create(ctx context.Context, p *models.Participant, n *models.Notification) (*models.Participant, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO birthday_event_participants (event_id, user_id, participation_type, amount, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`

		if err := tx.QueryRowContext(ctx, query,
			p.EventID,
			p.UserID,
			p.ParticipationType,
			p.Amount,
			p.Message,
			time.Now(),
		).Scan(&p.CreatedAt); err != nil {
			return duplicateOr(err, "failed to create participant")
		}

		if n == nil {
			return nil
		}
		return insertNotification(ctx, tx, n)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
