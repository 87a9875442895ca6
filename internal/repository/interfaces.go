package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// CursorFilters select a keyset window ordered by (created_at, id). Limit is
// the number of rows to read; callers ask for one more than the page size.
type CursorFilters struct {
	Cursor    *pagination.TimeCursor
	Direction pagination.Direction
	Limit     int
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	ListBatch(ctx context.Context, afterID int64, limit int) ([]*models.User, error)
	Search(ctx context.Context, viewerID int64, term string, limit, offset int) ([]*models.User, int, error)
	UpdateTelegramChatID(ctx context.Context, userID int64, chatID *int64) error
}

// FollowRepository defines the interface for follow edges
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID int64) error
	Unfollow(ctx context.Context, followerID, followingID int64) error
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	FollowingIDs(ctx context.Context, followerID int64) ([]int64, error)
	FollowerIDs(ctx context.Context, followingID int64) ([]int64, error)
}

// MoaFilters select the events listed on the moa screen
type MoaFilters struct {
	CursorFilters
	ViewerID int64
}

// EventRepository defines the interface for birthday event operations
type EventRepository interface {
	Create(ctx context.Context, event *models.BirthdayEvent) (*models.BirthdayEvent, error)
	GetByID(ctx context.Context, id int64) (*models.BirthdayEvent, error)
	GetActiveByPerson(ctx context.Context, personID int64) (*models.BirthdayEvent, error)
	GetLatestCompletedByPerson(ctx context.Context, personID int64) (*models.BirthdayEvent, error)
	ActiveByPersons(ctx context.Context, personIDs []int64) (map[int64]*models.BirthdayEvent, error)
	ListMoas(ctx context.Context, filters MoaFilters) ([]*models.BirthdayEvent, error)
	ListBannerMoas(ctx context.Context, viewerID int64) ([]*models.BirthdayEvent, error)
	Amounts(ctx context.Context, eventIDs []int64) (map[int64]models.EventAmounts, error)
	// ListActiveDue returns active events whose deadline is before day,
	// oldest deadline first.
	ListActiveDue(ctx context.Context, day time.Time, limit int) ([]*models.BirthdayEvent, error)
	// Complete moves an active event to completed with the given flags. It
	// reports false when the event was no longer active.
	Complete(ctx context.Context, id int64, c models.Completion) (bool, error)
	SetNeedBalance(ctx context.Context, id int64, need bool) error
}

// ParticipantRepository defines the interface for event participation
type ParticipantRepository interface {
	Get(ctx context.Context, eventID, userID int64) (*models.Participant, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Participant, error)
	JoinedEventIDs(ctx context.Context, userID int64, eventIDs []int64) (map[int64]bool, error)
	// Create inserts the participant and the owner's notification in one
	// transaction. A second participation returns ErrDuplicate.
	Create(ctx context.Context, p *models.Participant, n *models.Notification) (*models.Participant, error)
}

// WishlistRepository defines the interface for wishlist operations
type WishlistRepository interface {
	Create(ctx context.Context, w *models.Wishlist) (*models.Wishlist, error)
	GetByID(ctx context.Context, id int64) (*models.Wishlist, error)
	ListByUser(ctx context.Context, userID int64, filters CursorFilters) ([]*models.Wishlist, error)
	ListAllByUser(ctx context.Context, userID int64) ([]*models.Wishlist, error)
	Update(ctx context.Context, w *models.Wishlist) (*models.Wishlist, error)
	Delete(ctx context.Context, id int64) error
}

// VoteRepository defines the interface for wishlist votes
type VoteRepository interface {
	ListByEvent(ctx context.Context, eventID int64) ([]*models.WishlistVote, error)
	// Replace swaps the user's whole vote set for the event atomically.
	Replace(ctx context.Context, eventID, userID int64, wishlistIDs []int64) error
}

// SelectionRepository defines the interface for the items an owner commits to buy
type SelectionRepository interface {
	ListWishlistIDs(ctx context.Context, eventID int64) ([]int64, error)
	// Replace swaps the event's selected set atomically.
	Replace(ctx context.Context, eventID int64, wishlistIDs []int64) error
}

// HomeLetterRow is an event the viewer can still write a letter for.
type HomeLetterRow struct {
	Event           *models.BirthdayEvent
	LetterID        *int64
	LetterUpdatedAt *time.Time
}

// LetterRepository defines the interface for letter operations
type LetterRepository interface {
	Create(ctx context.Context, letter *models.Letter) (*models.Letter, error)
	GetByID(ctx context.Context, id int64) (*models.Letter, error)
	Update(ctx context.Context, letter *models.Letter) (*models.Letter, error)
	Delete(ctx context.Context, id int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Letter, error)
	ListHome(ctx context.Context, userID int64, today time.Time, filters CursorFilters) ([]*HomeLetterRow, error)
}

// SearchHistoryRepository defines the interface for user search history
type SearchHistoryRepository interface {
	// Record upserts term and trims the user's history to keep entries.
	Record(ctx context.Context, userID int64, term string, keep int) error
	List(ctx context.Context, userID int64, limit int) ([]*models.SearchHistory, error)
	GetByID(ctx context.Context, id int64) (*models.SearchHistory, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// DispositionRepository defines the interface for leftover fund handling.
// Both writes insert the per-event guard row and clear the event's balance
// flag in one transaction, and return ErrDuplicate when the event was
// already processed.
type DispositionRepository interface {
	IsProcessed(ctx context.Context, eventID int64) (bool, error)
	Donate(ctx context.Context, d *models.Donation) error
	ConvertToCoins(ctx context.Context, c *models.CoinConversion) error
}

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	// MarkRead reports false when the notification does not exist or
	// belongs to someone else.
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	HasUnread(ctx context.Context, userID int64) (bool, error)
}

// PurchaseProofRepository defines the interface for purchase proofs
type PurchaseProofRepository interface {
	// Create stores the proof, clears the event's certification flag and
	// writes the participants' notifications in one transaction. A second
	// proof for the event returns ErrDuplicate.
	Create(ctx context.Context, p *models.PurchaseProof, notifications []*models.Notification) error
	GetByEvent(ctx context.Context, eventID int64) (*models.PurchaseProof, error)
}

// ShareTokenRepository defines the interface for event share links
type ShareTokenRepository interface {
	// Create stores t and drops the event's tokens that expired before now.
	Create(ctx context.Context, t *models.ShareToken, now time.Time) error
	Get(ctx context.Context, token string) (*models.ShareToken, error)
}
