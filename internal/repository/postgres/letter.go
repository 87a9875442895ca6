package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type letterRepository struct {
	db *sql.DB
}

// NewLetterRepository creates a new letter repository
func NewLetterRepository(db *sql.DB) repository.LetterRepository {
	return &letterRepository{db: db}
}

const letterColumns = `l.id, l.event_id, l.sender_id, l.receiver_id, l.title, l.content, l.created_at, l.updated_at`

func scanLetter(s rowScanner, extra ...any) (*models.Letter, error) {
	l := &models.Letter{}
	dest := append([]any{
		&l.ID,
		&l.EventID,
		&l.SenderID,
		&l.ReceiverID,
		&l.Title,
		&l.Content,
		&l.CreatedAt,
		&l.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *letterRepository) Create(ctx context.Context, letter *models.Letter) (*models.Letter, error) {
	query := `
		INSERT INTO letters (event_id, sender_id, receiver_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		letter.EventID,
		letter.SenderID,
		letter.ReceiverID,
		letter.Title,
		letter.Content,
		now,
		now,
	).Scan(&letter.ID, &letter.CreatedAt, &letter.UpdatedAt)
	if err != nil {
		return nil, duplicateOr(err, "failed to create letter")
	}
	return letter, nil
}

func (r *letterRepository) GetByID(ctx context.Context, id int64) (*models.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters l WHERE l.id = $1`

	letter, err := scanLetter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get letter by ID: %w", err)
	}
	return letter, nil
}

func (r *letterRepository) Update(ctx context.Context, letter *models.Letter) (*models.Letter, error) {
	query := `
		UPDATE letters
		SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, letter.ID, letter.Title, letter.Content, time.Now()).
		Scan(&letter.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("letter with ID %d not found", letter.ID)
		}
		return nil, fmt.Errorf("failed to update letter: %w", err)
	}
	return letter, nil
}

func (r *letterRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM letters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete letter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("letter with ID %d not found", id)
	}
	return nil
}

func (r *letterRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Letter, error) {
	query := `
		SELECT ` + letterColumns + `, u.name, u.handle, u.photo_url
		FROM letters l
		JOIN users u ON u.id = l.sender_id
		WHERE l.event_id = $1
		ORDER BY l.created_at ASC, l.id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query letters: %w", err)
	}
	defer rows.Close()

	var letters []*models.Letter
	for rows.Next() {
		sender := &models.User{}
		letter, err := scanLetter(rows, &sender.Name, &sender.Handle, &sender.PhotoURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan letter: %w", err)
		}
		sender.ID = letter.SenderID
		letter.Sender = sender
		letters = append(letters, letter)
	}
	return letters, rows.Err()
}

// ListHome returns the active, not yet closed events userID joined together
// with the letter userID already wrote for each, if any.
func (r *letterRepository) ListHome(ctx context.Context, userID int64, today time.Time, filters repository.CursorFilters) ([]*repository.HomeLetterRow, error) {
	where, order, cursorArgs := keyset("e", filters, 4)

	query := `
		SELECT ` + eventColumns + `, l.id, l.updated_at
		FROM birthday_events e
		JOIN birthday_event_participants p ON p.event_id = e.id AND p.user_id = $1
		LEFT JOIN letters l ON l.event_id = e.id AND l.sender_id = $1
		WHERE e.status = 'active' AND e.deadline >= $3` +
		where + `
		` + order + `
		LIMIT $2`

	args := append([]any{userID, filters.Limit, today}, cursorArgs...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query home letters: %w", err)
	}
	defer rows.Close()

	var out []*repository.HomeLetterRow
	for rows.Next() {
		var letterID sql.NullInt64
		var letterUpdated sql.NullTime
		event := &models.BirthdayEvent{}
		var wishlistID sql.NullInt64
		if err := rows.Scan(
			&event.ID,
			&event.BirthdayPersonID,
			&event.CreatorID,
			&wishlistID,
			&event.Title,
			&event.Deadline,
			&event.Status,
			&event.NeedBalance,
			&event.NeedCertification,
			&event.CreatedAt,
			&event.UpdatedAt,
			&letterID,
			&letterUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan home letter: %w", err)
		}
		if wishlistID.Valid {
			event.WishlistID = &wishlistID.Int64
		}

		row := &repository.HomeLetterRow{Event: event}
		if letterID.Valid {
			row.LetterID = &letterID.Int64
		}
		if letterUpdated.Valid {
			row.LetterUpdatedAt = &letterUpdated.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
