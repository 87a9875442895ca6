package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kerhoff/moamoa/internal/repository"
)

type followRepository struct {
	db *sql.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *sql.DB) repository.FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followingID int64) error {
	query := `
		INSERT INTO follows (follower_id, following_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, following_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followingID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`

	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

func (r *followRepository) ids(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *followRepository) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT following_id FROM follows WHERE follower_id = $1 ORDER BY following_id`, followerID)
}

func (r *followRepository) FollowerIDs(ctx context.Context, followingID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT follower_id FROM follows WHERE following_id = $1 ORDER BY follower_id`, followingID)
}
