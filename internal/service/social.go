package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
)

const (
	maxSearchTerm = 50
	// SearchHistoryKeep is how many distinct terms a user's history retains.
	SearchHistoryKeep = 50
)

// UserSearchItem is a search hit.
type UserSearchItem struct {
	UserSummary
	Birthday    string `json:"birthday,omitempty"`
	IsFollowing bool   `json:"isFollowing"`
}

// OffsetPagination describes a numbered page.
type OffsetPagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// UserSearchResult is one page of user search.
type UserSearchResult struct {
	Users      []UserSearchItem `json:"users"`
	Pagination OffsetPagination `json:"pagination"`
}

// SearchUsers finds other users by name or handle and remembers the term.
func (s *Service) SearchUsers(ctx context.Context, viewerID int64, q string, page, limit int) (*UserSearchResult, error) {
	q = strings.TrimSpace(q)
	if n := utf8.RuneCountInString(q); n == 0 || n > maxSearchTerm {
		return nil, apperr.Validation("INVALID_QUERY", "검색어는 1자 이상 %d자 이하로 입력해주세요", maxSearchTerm)
	}

	users, total, err := s.Users.Search(ctx, viewerID, q, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	following, err := s.Follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load followings: %w", err)
	}
	followed := make(map[int64]bool, len(following))
	for _, id := range following {
		followed[id] = true
	}

	items := make([]UserSearchItem, 0, len(users))
	for _, u := range users {
		item := UserSearchItem{UserSummary: summarize(u), IsFollowing: followed[u.ID]}
		if !u.Birthday.IsZero() {
			item.Birthday = dateString(u.Birthday)
		}
		items = append(items, item)
	}

	if err := s.SearchHistory.Record(ctx, viewerID, q, SearchHistoryKeep); err != nil {
		s.logger.WithError(err).WithField("user_id", viewerID).Warn("Failed to record search history")
	}

	totalPages := (total + limit - 1) / limit
	return &UserSearchResult{
		Users: items,
		Pagination: OffsetPagination{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// SearchHistoryList returns the viewer's latest search terms.
func (s *Service) SearchHistoryList(ctx context.Context, viewerID int64, limit int) ([]*models.SearchHistory, error) {
	items, err := s.SearchHistory.List(ctx, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	if items == nil {
		items = []*models.SearchHistory{}
	}
	return items, nil
}

// DeleteSearchHistory removes one of the viewer's terms.
func (s *Service) DeleteSearchHistory(ctx context.Context, viewerID, historyID int64) error {
	h, err := s.SearchHistory.GetByID(ctx, historyID)
	if err != nil {
		return fmt.Errorf("failed to load search history: %w", err)
	}
	if h == nil {
		return apperr.NotFound("SEARCH_HISTORY_NOT_FOUND", "검색 기록을 찾을 수 없습니다")
	}
	if h.UserID != viewerID {
		return apperr.Forbidden("SEARCH_HISTORY_FORBIDDEN", "본인의 검색 기록만 삭제할 수 있습니다")
	}
	if err := s.SearchHistory.Delete(ctx, historyID); err != nil {
		return fmt.Errorf("failed to delete search history: %w", err)
	}
	return nil
}

// ClearSearchHistory removes all of the viewer's terms.
func (s *Service) ClearSearchHistory(ctx context.Context, viewerID int64) (int64, error) {
	n, err := s.SearchHistory.DeleteAll(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}
	return n, nil
}

// Follow makes viewerID follow targetID. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, viewerID, targetID int64) error {
	if viewerID == targetID {
		return apperr.Validation("CANNOT_FOLLOW_SELF", "자기 자신은 팔로우할 수 없습니다")
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}
	if err := s.Follows.Follow(ctx, viewerID, targetID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *Service) Unfollow(ctx context.Context, viewerID, targetID int64) error {
	if viewerID == targetID {
		return apperr.Validation("CANNOT_FOLLOW_SELF", "자기 자신은 팔로우할 수 없습니다")
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}
	if err := s.Follows.Unfollow(ctx, viewerID, targetID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

// LinkTelegram stores the chat notifications go to. A nil chatID unlinks.
func (s *Service) LinkTelegram(ctx context.Context, userID int64, chatID *int64) error {
	if chatID != nil && *chatID == 0 {
		return apperr.Validation("INVALID_CHAT_ID", "유효하지 않은 채팅 ID입니다")
	}
	if err := s.Users.UpdateTelegramChatID(ctx, userID, chatID); err != nil {
		return fmt.Errorf("failed to link telegram: %w", err)
	}
	return nil
}

// UserByTelegramChat resolves a linked chat, nil when unlinked.
func (s *Service) UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	u, err := s.Users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user by chat: %w", err)
	}
	return u, nil
}

// Notifications lists the user's latest in-app notifications.
func (s *Service) Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	items, err := s.Repositories.Notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return items, nil
}

// MarkNotificationRead marks one of the user's notifications read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	ok, err := s.Repositories.Notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return apperr.NotFound("NOTIFICATION_NOT_FOUND", "알림을 찾을 수 없습니다")
	}
	return nil
}

// MarkAllNotificationsRead returns how many notifications changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.Repositories.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *Service) HasUnreadNotifications(ctx context.Context, userID int64) (bool, error) {
	unread, err := s.Repositories.Notifications.HasUnread(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check notifications: %w", err)
	}
	return unread, nil
}
