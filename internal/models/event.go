package models

import "time"

// EventStatus is the lifecycle state of a birthday event
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// BirthdayEvent is a pooled gift campaign for one person's birthday.
type BirthdayEvent struct {
	ID                int64       `json:"id" db:"id"`
	BirthdayPersonID  int64       `json:"birthdayPersonId" db:"birthday_person_id"`
	CreatorID         int64       `json:"creatorId" db:"creator_id"`
	WishlistID        *int64      `json:"wishlistId,omitempty" db:"wishlist_id"`
	Title             string      `json:"title" db:"title"`
	Deadline          time.Time   `json:"deadline" db:"deadline"`
	Status            EventStatus `json:"status" db:"status"`
	NeedBalance       bool        `json:"needBalance" db:"need_balance"`
	NeedCertification bool        `json:"needCertification" db:"need_certification"`
	CreatedAt         time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time   `json:"updatedAt" db:"updated_at"`

	BirthdayPerson *User `json:"birthdayPerson,omitempty"`
}

// IsOwner reports whether userID is the birthday person.
func (e *BirthdayEvent) IsOwner(userID int64) bool {
	return e.BirthdayPersonID == userID
}

func (e *BirthdayEvent) IsActive() bool    { return e.Status == EventStatusActive }
func (e *BirthdayEvent) IsCompleted() bool { return e.Status == EventStatusCompleted }

// ParticipationType tells whether a participant pledged money
type ParticipationType string

const (
	ParticipationWithMoney    ParticipationType = "WITH_MONEY"
	ParticipationWithoutMoney ParticipationType = "WITHOUT_MONEY"
)

// Participant is a user's contribution to an event.
type Participant struct {
	EventID           int64             `json:"eventId" db:"event_id"`
	UserID            int64             `json:"userId" db:"user_id"`
	ParticipationType ParticipationType `json:"participationType" db:"participation_type"`
	Amount            int64             `json:"amount" db:"amount"`
	Message           string            `json:"message" db:"message"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`

	User *User `json:"user,omitempty"`
}

// EventAmounts are the two aggregates settlement works from.
type EventAmounts struct {
	CurrentAmount    int64 `json:"currentAmount"`
	SelectedAmount   int64 `json:"selectedAmount"`
	ParticipantCount int   `json:"participantCount"`
}

// Completion is how an event left the active state. The flags drive the
// owner's balance and certification banners.
type Completion struct {
	NeedBalance       bool
	NeedCertification bool
}

// PurchaseProof is the owner's proof of purchase, sent with a thank-you
// message to every participant. One per event.
type PurchaseProof struct {
	ID          int64     `json:"id" db:"id"`
	EventID     int64     `json:"eventId" db:"event_id"`
	ProofImages []string  `json:"proofImages" db:"proof_images"`
	Message     string    `json:"message" db:"message"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ShareToken grants link access to an active event until ExpiresAt.
type ShareToken struct {
	Token     string    `json:"token" db:"token"`
	EventID   int64     `json:"eventId" db:"event_id"`
	CreatedBy int64     `json:"createdBy" db:"created_by"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
