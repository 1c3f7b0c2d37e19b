package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-movie-bot/internal/infra/metrics"
)

// BotSender реализует domain.Sender поверх Bot API.
type BotSender struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewBotSender создаёт отправителя.
func NewBotSender(bot *tgbotapi.BotAPI, log zerolog.Logger) *BotSender {
	return &BotSender{bot: bot, log: log}
}

// SendText отправляет текст, при необходимости разбивая его на части.
func (s *BotSender) SendText(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		start := time.Now()
		_, err := s.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// SendPhoto отправляет фото с подписью. При ошибке отправки фотографии
// прозрачно откатывается на текстовое сообщение с тем же содержимым.
func (s *BotSender) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = TruncateCaption(caption)
	photo.ParseMode = tgbotapi.ModeMarkdown
	start := time.Now()
	_, err := s.bot.Send(photo)
	metrics.ObserveNetworkRequest("telegram_bot", "send_photo", strconv.FormatInt(chatID, 10), start, err)
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Int64("chat", chatID).Msg("фото не отправилось, откатываемся на текст")
	return s.SendText(ctx, chatID, caption)
}
