package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/telegram"
)

const helpText = `📚 *MoaMoa 도움말*

• /start - 채팅 ID 확인 및 계정 연결 안내
• /birthdays [개수] - 7일 안에 생일인 친구 목록
• /notifications [개수] - 최근 알림
• /help - 이 도움말

_계정 연결은 앱의 알림 설정에서 채팅 ID를 입력하면 완료돼요._`

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(_ context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	if err := send(bot, message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")
	return nil
}
