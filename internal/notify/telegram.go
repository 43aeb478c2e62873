package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Bot is the part of *tgbotapi.BotAPI the Telegram service uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService is a nikoksr/notify service that posts each message to a fixed set of
// chats.
type TelegramService struct {
	bot     Bot
	chatIDs []int64
}

func NewTelegramService(bot Bot, chatIDs ...int64) *TelegramService {
	return &TelegramService{bot: bot, chatIDs: chatIDs}
}

// Send posts "subject\nmessage" to every chat, stopping at the first failure.
func (t *TelegramService) Send(ctx context.Context, subject, message string) error {
	text := subject + "\n" + message
	for _, id := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			return errors.Wrapf(err, "send to chat %d", id)
		}
	}
	return nil
}
