package models

import "time"

// Letter is a message a participant writes to the birthday person
type Letter struct {
	ID         int64     `json:"id" db:"id"`
	EventID    int64     `json:"eventId" db:"event_id"`
	SenderID   int64     `json:"senderId" db:"sender_id"`
	ReceiverID int64     `json:"receiverId" db:"receiver_id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	Sender *User `json:"sender,omitempty"`
}

// SearchHistory is one remembered user-search term
type SearchHistory struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	SearchTerm string    `json:"searchTerm" db:"search_term"`
	SearchedAt time.Time `json:"searchedAt" db:"searched_at"`
}

// NotificationKind categorises a notification
type NotificationKind string

const (
	NotificationParticipation  NotificationKind = "PARTICIPATION"
	NotificationEventCreated   NotificationKind = "EVENT_CREATED"
	NotificationMoaCompleted   NotificationKind = "MOA_COMPLETED"
	NotificationEventCompleted NotificationKind = "EVENT_COMPLETED"
	NotificationPurchaseProof  NotificationKind = "PURCHASE_PROOF"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"userId" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	EventID   *int64           `json:"eventId,omitempty" db:"event_id"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
