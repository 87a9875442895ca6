package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/notify"
)

// Sender is the part of the Bot API used to reply. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram bot API. It answers commands and delivers
// notifications to linked chats.
type Bot struct {
	client *tgbotapi.BotAPI
	api    Sender
	logger *logrus.Logger
	router *Router
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	b := NewBotWithSender(api, logger)
	b.client = api
	return b, nil
}

// NewBotWithSender builds a bot that can send but not poll.
func NewBotWithSender(api Sender, logger *logrus.Logger) *Bot {
	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}
}

// Start starts the bot with long polling. It blocks until ctx is cancelled,
// so launch it in a goroutine.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no polling client")
	}

	// Delete webhook if exists and use polling
	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.client.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.client.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(ctx, b.api, update.Message)
	} else if update.CallbackQuery != nil {
		b.router.HandleCallbackQuery(b.api, update.CallbackQuery)
	}
}

// SendMessage sends a message to a chat
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Notify delivers msg to the recipient's linked chat. Recipients without a
// chat are skipped.
func (b *Bot) Notify(ctx context.Context, msg notify.Message) error {
	if msg.TelegramChatID == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf("*%s*\n%s", EscapeMarkdown(msg.Title), EscapeMarkdown(msg.Body))
	if err := b.SendMessage(*msg.TelegramChatID, text); err != nil {
		return fmt.Errorf("telegram chat %d: %w", *msg.TelegramChatID, err)
	}
	return nil
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// EscapeMarkdown escapes the characters legacy Markdown treats as markup.
func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
