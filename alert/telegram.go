package alert

import (
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram delivers alerts to a chat via the bot API.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

// NewTelegram connects the bot. Token and chat ID come from configuration.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Notify(p Payload) error {
	text := fmt.Sprintf("[%s] %s\n%s\n%s",
		p.Kind, p.Symbol, p.Message, p.Time.Format("02/01/2006 15:04:05"))

	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
