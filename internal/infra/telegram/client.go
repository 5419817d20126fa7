package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// BotMessenger pushes messages through the running bot.
type BotMessenger struct {
	bot *telebot.Bot
}

func NewBotMessenger(b *telebot.Bot) *BotMessenger {
	return &BotMessenger{bot: b}
}

func (m *BotMessenger) Push(ctx context.Context, chatID int64, html string, markup *telebot.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML, ReplyMarkup: markup}
	_, err := m.bot.Send(&telebot.Chat{ID: chatID}, html, opts)
	return err
}
