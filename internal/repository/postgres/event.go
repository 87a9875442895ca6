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

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new birthday event repository
func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `e.id, e.birthday_person_id, e.creator_id, e.wishlist_id, e.title, e.deadline, e.status,
	e.need_balance, e.need_certification, e.created_at, e.updated_at`

func scanEvent(s rowScanner) (*models.BirthdayEvent, error) {
	event := &models.BirthdayEvent{}
	var wishlistID sql.NullInt64
	err := s.Scan(
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
	)
	if err != nil {
		return nil, err
	}
	if wishlistID.Valid {
		event.WishlistID = &wishlistID.Int64
	}
	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.BirthdayEvent) (*models.BirthdayEvent, error) {
	query := `
		INSERT INTO birthday_events (birthday_person_id, creator_id, wishlist_id, title, deadline, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}

	err := r.db.QueryRowContext(ctx, query,
		event.BirthdayPersonID,
		event.CreatorID,
		event.WishlistID,
		event.Title,
		event.Deadline,
		event.Status,
		now,
		now,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, duplicateOr(err, "failed to create birthday event")
	}

	return event, nil
}

func (r *eventRepository) getOne(ctx context.Context, query string, args ...any) (*models.BirthdayEvent, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get birthday event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.BirthdayEvent, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM birthday_events e WHERE e.id = $1`, id)
}

func (r *eventRepository) GetActiveByPerson(ctx context.Context, personID int64) (*models.BirthdayEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE e.birthday_person_id = $1 AND e.status = 'active'
		ORDER BY e.created_at DESC
		LIMIT 1`

	return r.getOne(ctx, query, personID)
}

func (r *eventRepository) GetLatestCompletedByPerson(ctx context.Context, personID int64) (*models.BirthdayEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE e.birthday_person_id = $1 AND e.status = 'completed'
		ORDER BY e.updated_at DESC, e.id DESC
		LIMIT 1`

	return r.getOne(ctx, query, personID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*models.BirthdayEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthday events: %w", err)
	}
	defer rows.Close()

	var events []*models.BirthdayEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan birthday event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *eventRepository) ActiveByPersons(ctx context.Context, personIDs []int64) (map[int64]*models.BirthdayEvent, error) {
	out := make(map[int64]*models.BirthdayEvent, len(personIDs))
	if len(personIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE e.birthday_person_id = ANY($1) AND e.status = 'active'`

	events, err := r.list(ctx, query, pq.Array(personIDs))
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		out[e.BirthdayPersonID] = e
	}
	return out, nil
}

// ListMoas returns active or completed events owned by the viewer or by
// someone the viewer follows.
func (r *eventRepository) ListMoas(ctx context.Context, filters repository.MoaFilters) ([]*models.BirthdayEvent, error) {
	where, order, cursorArgs := keyset("e", filters.CursorFilters, 3)

	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE e.status IN ('active', 'completed')
		  AND (e.birthday_person_id = $1
		       OR e.birthday_person_id IN (SELECT following_id FROM follows WHERE follower_id = $1))` +
		where + `
		` + order + `
		LIMIT $2`

	args := append([]any{filters.ViewerID, filters.Limit}, cursorArgs...)
	return r.list(ctx, query, args...)
}

// ListBannerMoas returns the viewer's own active/completed events and the
// active events the viewer joined, newest first.
func (r *eventRepository) ListBannerMoas(ctx context.Context, viewerID int64) ([]*models.BirthdayEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE (e.birthday_person_id = $1 AND e.status IN ('active', 'completed'))
		   OR (e.status = 'active' AND EXISTS (
		        SELECT 1 FROM birthday_event_participants p
		        WHERE p.event_id = e.id AND p.user_id = $1))
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT 50`

	return r.list(ctx, query, viewerID)
}

// Amounts sums contributions and selected item prices per event.
func (r *eventRepository) Amounts(ctx context.Context, eventIDs []int64) (map[int64]models.EventAmounts, error) {
	out := make(map[int64]models.EventAmounts, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ev.id,
		       COALESCE((SELECT SUM(p.amount) FROM birthday_event_participants p WHERE p.event_id = ev.id), 0),
		       COALESCE((SELECT SUM(w.price)
		                 FROM birthday_event_selected_items s
		                 JOIN wishlists w ON w.id = s.wishlist_id
		                 WHERE s.event_id = ev.id), 0),
		       (SELECT COUNT(*) FROM birthday_event_participants p WHERE p.event_id = ev.id)
		FROM birthday_events ev
		WHERE ev.id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query event amounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var a models.EventAmounts
		if err := rows.Scan(&id, &a.CurrentAmount, &a.SelectedAmount, &a.ParticipantCount); err != nil {
			return nil, fmt.Errorf("failed to scan event amounts: %w", err)
		}
		out[id] = a
	}
	return out, rows.Err()
}

func (r *eventRepository) ListActiveDue(ctx context.Context, day time.Time, limit int) ([]*models.BirthdayEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM birthday_events e
		WHERE e.status = 'active' AND e.deadline < $1
		ORDER BY e.deadline ASC, e.id ASC
		LIMIT $2`

	return r.list(ctx, query, day, limit)
}

func (r *eventRepository) Complete(ctx context.Context, id int64, c models.Completion) (bool, error) {
	query := `
		UPDATE birthday_events
		SET status = 'completed', need_balance = $2, need_certification = $3, updated_at = $4
		WHERE id = $1 AND status = 'active'`

	res, err := r.db.ExecContext(ctx, query, id, c.NeedBalance, c.NeedCertification, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to complete birthday event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to complete birthday event: %w", err)
	}
	return n > 0, nil
}

func (r *eventRepository) SetNeedBalance(ctx context.Context, id int64, need bool) error {
	query := `UPDATE birthday_events SET need_balance = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, need, time.Now()); err != nil {
		return fmt.Errorf("failed to update birthday event balance flag: %w", err)
	}
	return nil
}
