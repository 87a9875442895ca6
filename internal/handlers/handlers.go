// Package handlers implements the Telegram bot commands.
package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/service"
	"github.com/Kerhoff/moamoa/internal/telegram"
)

// Backend is the slice of the service the bot commands use.
type Backend interface {
	UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	UpcomingBirthdays(ctx context.Context, viewerID int64, req service.PageRequest) (*service.UpcomingPage, error)
	Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
}

const notLinkedText = "🔗 아직 MoaMoa 계정과 연결되지 않았어요.\n" +
	"/start 로 채팅 ID를 확인한 뒤 앱의 알림 설정에서 연결해주세요."

func send(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// linkedUser resolves the MoaMoa account of the chat, replying with linking
// instructions when there is none.
func linkedUser(ctx context.Context, backend Backend, bot telegram.Sender, chatID int64) (*models.User, error) {
	user, err := backend.UserByTelegramChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve chat user: %w", err)
	}
	if user == nil {
		return nil, send(bot, chatID, notLinkedText)
	}
	return user, nil
}
