package models

import "time"

// User represents a member of the service
type User struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Handle         string    `json:"handle" db:"handle"`
	Email          string    `json:"email,omitempty" db:"email"`
	Birthday       time.Time `json:"birthday" db:"birthday"`
	PhotoURL       string    `json:"photoUrl" db:"photo_url"`
	Cash           int64     `json:"-" db:"cash"`
	Coins          int64     `json:"-" db:"coins"`
	TelegramChatID *int64    `json:"-" db:"telegram_chat_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "@" + u.Handle
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  int64     `json:"followerId" db:"follower_id"`
	FollowingID int64     `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
