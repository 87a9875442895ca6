package api

import (
	"net/http"

	"github.com/Kerhoff/moamoa/internal/pagination"
)

type linkTelegramRequest struct {
	ChatID *int64 `json:"chatId"`
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pagination.ParsePage(q.Get("page"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := pagination.ParseLimit(q.Get("limit"), 10, 1, 20)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.SearchUsers(r.Context(), viewer(r), q.Get("q"), page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, result)
}

func (s *Server) handleSearchHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := pagination.ParseLimit(r.URL.Query().Get("limit"), 10, 1, 50)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.svc.SearchHistoryList(r.Context(), viewer(r), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"histories": items})
}

func (s *Server) handleDeleteSearchHistory(w http.ResponseWriter, r *http.Request) {
	historyID, err := pathID(r, "historyId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteSearchHistory(r.Context(), viewer(r), historyID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]int64{"deletedHistoryId": historyID})
}

func (s *Server) handleClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ClearSearchHistory(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]int64{"deletedCount": n})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.Follow(r.Context(), viewer(r), targetID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"userId": targetID, "isFollowing": true})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.Unfollow(r.Context(), viewer(r), targetID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"userId": targetID, "isFollowing": false})
}

func (s *Server) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	var req linkTelegramRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.LinkTelegram(r.Context(), viewer(r), req.ChatID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"chatId": req.ChatID, "linked": req.ChatID != nil})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := pagination.ParseLimit(r.URL.Query().Get("limit"), 20, 1, 50)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.svc.Notifications(r.Context(), viewer(r), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"notifications": items})
}

func (s *Server) handleUnreadStatus(w http.ResponseWriter, r *http.Request) {
	unread, err := s.svc.HasUnreadNotifications(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]bool{"hasUnreadNotifications": unread})
}

func (s *Server) handleReadNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "notificationId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.MarkNotificationRead(r.Context(), viewer(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"notificationId": id, "isRead": true})
}

func (s *Server) handleReadAllNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.MarkAllNotificationsRead(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]int64{"updatedCount": n})
}
