package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *sql.DB) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

const wishlistColumns = `w.id, w.user_id, w.product_name, w.price, w.product_image_url, w.product_url,
	w.insert_type, w.is_public, w.funding_active, w.created_at, w.updated_at`

func scanWishlist(s rowScanner) (*models.Wishlist, error) {
	w := &models.Wishlist{}
	err := s.Scan(
		&w.ID,
		&w.UserID,
		&w.ProductName,
		&w.Price,
		&w.ProductImageURL,
		&w.ProductURL,
		&w.InsertType,
		&w.IsPublic,
		&w.FundingActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	return w, err
}

func (r *wishlistRepository) Create(ctx context.Context, w *models.Wishlist) (*models.Wishlist, error) {
	query := `
		INSERT INTO wishlists (user_id, product_name, price, product_image_url, product_url, insert_type,
		                       is_public, funding_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		w.UserID,
		w.ProductName,
		w.Price,
		w.ProductImageURL,
		w.ProductURL,
		w.InsertType,
		w.IsPublic,
		w.FundingActive,
		now,
		now,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}

	return w, nil
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists w WHERE w.id = $1`

	w, err := scanWishlist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist by ID: %w", err)
	}
	return w, nil
}

func (r *wishlistRepository) list(ctx context.Context, query string, args ...any) ([]*models.Wishlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlists: %w", err)
	}
	defer rows.Close()

	var wishlists []*models.Wishlist
	for rows.Next() {
		w, err := scanWishlist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist: %w", err)
		}
		wishlists = append(wishlists, w)
	}
	return wishlists, rows.Err()
}

func (r *wishlistRepository) ListByUser(ctx context.Context, userID int64, filters repository.CursorFilters) ([]*models.Wishlist, error) {
	where, order, cursorArgs := keyset("w", filters, 3)

	query := `
		SELECT ` + wishlistColumns + `
		FROM wishlists w
		WHERE w.user_id = $1` + where + `
		` + order + `
		LIMIT $2`

	args := append([]any{userID, filters.Limit}, cursorArgs...)
	return r.list(ctx, query, args...)
}

func (r *wishlistRepository) ListAllByUser(ctx context.Context, userID int64) ([]*models.Wishlist, error) {
	query := `
		SELECT ` + wishlistColumns + `
		FROM wishlists w
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC`

	return r.list(ctx, query, userID)
}

func (r *wishlistRepository) Update(ctx context.Context, w *models.Wishlist) (*models.Wishlist, error) {
	query := `
		UPDATE wishlists
		SET product_name = $2, price = $3, product_image_url = $4, is_public = $5,
		    funding_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		w.ID,
		w.ProductName,
		w.Price,
		w.ProductImageURL,
		w.IsPublic,
		w.FundingActive,
		time.Now(),
	).Scan(&w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("wishlist with ID %d not found", w.ID)
		}
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return w, nil
}

func (r *wishlistRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM wishlists WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("wishlist with ID %d not found", id)
	}

	return nil
}
