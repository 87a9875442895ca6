package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger   *logrus.Logger
	handlers map[string]CommandHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, bot Sender, message *tgbotapi.Message, args []string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]CommandHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

func (r *Router) reply(bot Sender, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send reply")
	}
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, bot Sender, message *tgbotapi.Message) {
	fields := logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
	}
	if message.From != nil {
		fields["from_id"] = message.From.ID
	}

	// Only process commands
	if message.Text == "" || !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	fields["command"] = command

	handler, exists := r.handlers[command]
	if !exists {
		r.logger.WithFields(fields).Warn("Unknown command")
		r.reply(bot, message.Chat.ID, "❓ 알 수 없는 명령어입니다. /help 로 사용 가능한 명령어를 확인하세요.")
		return
	}

	r.logger.WithFields(fields).Info("Received command")
	if err := handler.Handle(ctx, bot, message, args); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Command handler failed")
		r.reply(bot, message.Chat.ID, "❌ 명령을 처리하는 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.")
	}
}

// HandleCallbackQuery acknowledges inline keyboard presses. No command uses
// inline keyboards yet.
func (r *Router) HandleCallbackQuery(bot Sender, callbackQuery *tgbotapi.CallbackQuery) {
	r.logger.WithFields(logrus.Fields{
		"callback_id": callbackQuery.ID,
		"from_id":     callbackQuery.From.ID,
		"data":        callbackQuery.Data,
	}).Info("Received callback query")

	if _, err := bot.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
		r.logger.WithError(err).Warn("Failed to answer callback query")
	}
}
