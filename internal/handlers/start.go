package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	backend Backend
	logger  *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(backend Backend, logger *logrus.Logger) *StartHandler {
	return &StartHandler{backend: backend, logger: logger}
}

// Handle greets the chat and shows the chat id used to link an account.
func (h *StartHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	chatID := message.Chat.ID

	user, err := h.backend.UserByTelegramChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("resolve chat user: %w", err)
	}

	var text string
	if user != nil {
		text = fmt.Sprintf("🎁 *%s*님, 다시 만나서 반가워요!\n\n"+
			"친구의 생일 모아, 참여 소식을 이 채팅으로 알려드릴게요.\n"+
			"/birthdays 로 다가오는 친구 생일을 확인해보세요.",
			telegram.EscapeMarkdown(user.DisplayName()))
	} else {
		text = fmt.Sprintf("🎁 *MoaMoa 알림 봇입니다!*\n\n"+
			"이 채팅의 ID는 `%d` 입니다.\n"+
			"앱의 알림 설정에 이 ID를 입력하면 생일 모아 소식을 받아볼 수 있어요.\n\n"+
			"/help 로 명령어를 확인하세요.", chatID)
	}

	if err := send(bot, chatID, text); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"linked":  user != nil,
	}).Info("Sent start message")

	return nil
}
