package models

import "time"

// InsertType records how a wishlist item was created
type InsertType string

const (
	InsertTypeURL    InsertType = "URL"
	InsertTypeImage  InsertType = "IMAGE"
	InsertTypeManual InsertType = "MANUAL"
)

// Wishlist is a product a user wants
type Wishlist struct {
	ID              int64      `json:"id" db:"id"`
	UserID          int64      `json:"userId" db:"user_id"`
	ProductName     string     `json:"productName" db:"product_name"`
	Price           int64      `json:"price" db:"price"`
	ProductImageURL string     `json:"productImageUrl" db:"product_image_url"`
	ProductURL      string     `json:"productUrl,omitempty" db:"product_url"`
	InsertType      InsertType `json:"insertType" db:"insert_type"`
	IsPublic        bool       `json:"isPublic" db:"is_public"`
	FundingActive   bool       `json:"fundingActive" db:"funding_active"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// WishlistVote is one participant's nomination of a wishlist item
type WishlistVote struct {
	EventID    int64     `json:"eventId" db:"event_id"`
	WishlistID int64     `json:"wishlistId" db:"wishlist_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SelectedItem is a wishlist item the birthday person committed to buy
type SelectedItem struct {
	EventID    int64     `json:"eventId" db:"event_id"`
	WishlistID int64     `json:"wishlistId" db:"wishlist_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
