// Package notify tells club admins about events that need their attention, such as a new
// member waiting for approval. Messages fan out through nikoksr/notify; the Telegram
// service posts them with a telegram-bot-api v5 bot.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/nikoksr/notify"

	"github.com/nashfy/pitstop/internal/models"
)

const sendTimeout = 15 * time.Second

// Sender delivers one message. notify.Notify satisfies it.
type Sender interface {
	Send(ctx context.Context, subject, message string) error
}

// Admins sends admin notifications in the background. The zero value and a nil *Admins
// drop every notification.
type Admins struct {
	sender Sender
	wg     sync.WaitGroup
}

// New wraps sender. A nil sender disables notifications.
func New(sender Sender) *Admins {
	return &Admins{sender: sender}
}

// NewTelegram notifies the given chats through the bot identified by token. With no
// token or no chats it returns a disabled notifier.
func NewTelegram(token string, chatIDs []int64) (*Admins, error) {
	if token == "" || len(chatIDs) == 0 {
		return New(nil), nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	return New(notify.NewWithServices(NewTelegramService(bot, chatIDs...))), nil
}

// Enabled reports whether notifications are actually delivered.
func (a *Admins) Enabled() bool {
	return a != nil && a.sender != nil
}

// MemberSignedUp announces a new pending member. It returns immediately; delivery
// failures are logged.
func (a *Admins) MemberSignedUp(m models.ClubMember) {
	city := "an unknown city"
	if m.City != nil && *m.City != "" {
		city = *m.City
	}
	a.send("New club member", fmt.Sprintf("%s <%s> from %s is waiting for approval.", m.Name, m.Email, city))
}

func (a *Admins) send(subject, message string) {
	if !a.Enabled() {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := a.sender.Send(ctx, subject, message); err != nil {
			log.Printf("notify: %s: %v", subject, err)
		}
	}()
}

// Wait blocks until notifications already handed off have been sent or have failed.
func (a *Admins) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}
