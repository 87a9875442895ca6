package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, handle, email, birthday, photo_url, cash, coins, telegram_chat_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	user := &models.User{}
	var chatID sql.NullInt64
	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Handle,
		&user.Email,
		&user.Birthday,
		&user.PhotoURL,
		&user.Cash,
		&user.Coins,
		&chatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if chatID.Valid {
		user.TelegramChatID = &chatID.Int64
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, handle, email, birthday, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Handle,
		user.Email,
		user.Birthday,
		user.PhotoURL,
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, duplicateOr(err, "failed to create user")
	}

	return user, nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID)
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	return users, rows.Err()
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) ListBatch(ctx context.Context, afterID int64, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2`

	return r.list(ctx, query, afterID, limit)
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *userRepository) Search(ctx context.Context, viewerID int64, term string, limit, offset int) ([]*models.User, int, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM users
		WHERE id <> $1 AND (LOWER(name) LIKE $2 OR LOWER(handle) LIKE $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, viewerID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1 AND (LOWER(name) LIKE $2 OR LOWER(handle) LIKE $2)
		ORDER BY name ASC, id ASC
		LIMIT $3 OFFSET $4`

	users, err := r.list(ctx, query, viewerID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) UpdateTelegramChatID(ctx context.Context, userID int64, chatID *int64) error {
	query := `
		UPDATE users
		SET telegram_chat_id = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, chatID)
	if err != nil {
		return duplicateOr(err, "failed to update telegram chat id")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with ID %d not found", userID)
	}

	return nil
}
