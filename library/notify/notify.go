// Package notify delivers contact messages to the site owner.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	tb "gopkg.in/telebot.v3"
)

// Message is what gets delivered
type Message struct {
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}

// Notifier sends a message somewhere a human will read it.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop drops every message
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, Message) error { return nil }

// sender is the part of *tb.Bot used here
type sender interface {
	Send(to tb.Recipient, what any, opts ...any) (*tb.Message, error)
}

// Telegram forwards messages to one chat
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram creates an offline bot, it never polls for updates.
// api overrides the Bot API endpoint, empty means the default.
func NewTelegram(token string, chatID int64, api string) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}

	bot, err := tb.NewBot(tb.Settings{
		Token:   token,
		URL:     api,
		Offline: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new telegram bot")
	}

	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify sends msg as plain text. The bot API has no context support,
// so ctx is only checked before sending.
func (t *Telegram) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "notify")
	}

	if _, err := t.bot.Send(tb.ChatID(t.chatID), Format(msg)); err != nil {
		return errors.Wrap(err, "send telegram message")
	}
	return nil
}

// Format renders msg for chat delivery
func Format(msg Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New contact message\n")
	fmt.Fprintf(&sb, "From: %s <%s>\n", msg.Name, msg.Email)
	if msg.Subject != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", msg.Subject)
	}
	if !msg.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "At: %s\n", msg.CreatedAt.UTC().Format(time.RFC3339))
	}
	sb.WriteString("\n")
	sb.WriteString(msg.Body)
	return sb.String()
}
