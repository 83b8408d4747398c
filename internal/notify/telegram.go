// Package notify доставляет уведомления вне приложения через Telegram бота.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

const sendTimeout = 5 * time.Second

// TelegramNotifier шлёт текст в чат, привязанный к профилю пользователя
type TelegramNotifier struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegramNotifier(b *bot.Bot, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: b, logger: logger}
}

// Notify молча пропускает пользователей без привязанного чата
func (n *TelegramNotifier) Notify(ctx context.Context, user *model.User, text string) error {
	if user == nil || user.TelegramChatID == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Telegram notification sent", zap.Int64("user_id", user.ID))
	return nil
}

// BotController отвечает на команды бота. Главная задача: подсказать пользователю
// его chat id, который он вписывает в профиль.
type BotController struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewBotController(b *bot.Bot, logger *zap.Logger) *BotController {
	return &BotController{bot: b, logger: logger}
}

// RegisterHandlers регистрирует обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleStart)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Get your chat id for notifications"},
			{Command: "help", Description: "How to link this chat"},
		},
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   StartText(chatID),
	})
	if err != nil {
		c.logger.Warn("Failed to answer /start", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// StartText ответ на /start
func StartText(chatID int64) string {
	return "Your chat id is " + strconv.FormatInt(chatID, 10) +
		". Put it into telegram_chat_id in your profile to get connection alerts here."
}

// Start запускает long polling до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
}
