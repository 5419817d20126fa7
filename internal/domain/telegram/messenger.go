// Package telegram holds what the application needs from the bot without
// depending on the bot itself.
package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// Messenger pushes HTML messages to chats outside of an incoming update:
// pending session reminders and debounced search results. markup may be nil.
type Messenger interface {
	Push(ctx context.Context, chatID int64, html string, markup *telebot.ReplyMarkup) error
}
