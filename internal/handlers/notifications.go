package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/telegram"
)

// NotificationsHandler handles /notifications [count].
type NotificationsHandler struct {
	backend Backend
	logger  *logrus.Logger
}

func NewNotificationsHandler(backend Backend, logger *logrus.Logger) *NotificationsHandler {
	return &NotificationsHandler{backend: backend, logger: logger}
}

// Handle replays the latest in-app notifications into the chat.
func (h *NotificationsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	chatID := message.Chat.ID

	user, err := linkedUser(ctx, h.backend, bot, chatID)
	if err != nil || user == nil {
		return err
	}

	items, err := h.backend.Notifications(ctx, user.ID, parseCount(args, 5, 20))
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	if len(items) == 0 {
		return send(bot, chatID, "🔕 새로운 알림이 없어요.")
	}

	var b strings.Builder
	b.WriteString("🔔 *최근 알림*\n\n")
	for _, n := range items {
		fmt.Fprintf(&b, "• *%s*\n  %s\n", telegram.EscapeMarkdown(n.Title), telegram.EscapeMarkdown(n.Body))
	}

	h.logger.WithFields(logrus.Fields{"chat_id": chatID, "count": len(items)}).Info("Sent notifications")
	return send(bot, chatID, b.String())
}
