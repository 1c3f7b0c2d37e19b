package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-movie-bot/internal/usecase/session"
)

// Бот в обработчике nil: любая попытка ответить уронит тест паникой.
func TestHandleMessageIgnoresNonText(t *testing.T) {
	sessionUC := session.NewService([]int64{1}, nil, nil, zerolog.Nop())
	h := NewHandler(nil, zerolog.Nop(), nil, nil, sessionUC, nil)

	sessionUC.StartBroadcast(1)

	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: "",
	}
	h.handleMessage(context.Background(), msg)

	if sessionUC.ActiveFlow(1) != session.FlowBroadcast {
		t.Fatalf("нетекстовое сообщение не должно закрывать открытый флоу")
	}
}
