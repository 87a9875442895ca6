package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/service"
	"github.com/Kerhoff/moamoa/internal/telegram"
)

const (
	defaultBirthdays = 5
	maxBirthdays     = 10
)

// parseCount reads an optional count argument, clamped to [1, max].
func parseCount(args []string, def, max int) int {
	if len(args) == 0 {
		return def
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// BirthdaysHandler handles /birthdays [count].
type BirthdaysHandler struct {
	backend Backend
	logger  *logrus.Logger
}

func NewBirthdaysHandler(backend Backend, logger *logrus.Logger) *BirthdaysHandler {
	return &BirthdaysHandler{backend: backend, logger: logger}
}

// Handle lists the followed friends whose birthday is within the week.
func (h *BirthdaysHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	chatID := message.Chat.ID

	user, err := linkedUser(ctx, h.backend, bot, chatID)
	if err != nil || user == nil {
		return err
	}

	page, err := h.backend.UpcomingBirthdays(ctx, user.ID, service.PageRequest{
		Direction: pagination.Next,
		Limit:     parseCount(args, defaultBirthdays, maxBirthdays),
	})
	if err != nil {
		return fmt.Errorf("list upcoming birthdays: %w", err)
	}

	if len(page.Items) == 0 {
		return send(bot, chatID, "📭 7일 안에 생일인 친구가 없어요.")
	}

	var b strings.Builder
	b.WriteString("🎂 *다가오는 친구 생일*\n\n")
	for _, item := range page.Items {
		fmt.Fprintf(&b, "• *%s* %s (%s)", telegram.EscapeMarkdown(item.Name), item.DisplayDate, dday.Format(item.DDay))
		if item.EventID != nil {
			b.WriteString(" 🎁 모아 진행 중")
		}
		b.WriteString("\n")
	}
	if page.Pagination.HasNext {
		b.WriteString("\n_더 많은 친구는 앱에서 확인하세요._")
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": user.ID,
		"count":   len(page.Items),
	}).Info("Sent upcoming birthdays")

	return send(bot, chatID, b.String())
}
