package service

import (
	"fmt"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type BotConfig struct {
	BotToken string
	Debug    bool
}

// BotNotifier relays stored notifications to the user's Telegram chat.
type BotNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewBotNotifier(config BotConfig) (*BotNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = config.Debug

	return &BotNotifier{
		bot: bot,
	}, nil
}

func (b *BotNotifier) Notify(n *model.Notification) {
	msg := tgbotapi.NewMessage(n.UserID, fmt.Sprintf("%s\n%s", n.Title, n.Message))

	if _, err := b.bot.Send(msg); err != nil {
		logger.Logger().Warn("failed to send telegram notification",
			zap.Int64("telegram_id", n.UserID),
			zap.Error(err))
	}
}
