package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAlertService — опциональный канал оповещений для дежурных:
// шлёт в админ-чат сообщения о серверных ошибках. Nil-safe: без токена
// или chat_id все вызовы становятся no-op.
type TelegramAlertService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlertService(botToken string, adminChatID int64) *TelegramAlertService {
	if botToken == "" || adminChatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg][init] bot api unavailable: %v", err)
		return nil
	}
	return &TelegramAlertService{bot: bot, chatID: adminChatID}
}

func (t *TelegramAlertService) NotifyServerError(label, correlation string, status int) {
	if t == nil || t.bot == nil {
		return
	}
	text := fmt.Sprintf("⚠️ server error %d\nflow: %s\ncorrelation: %s", status, label, correlation)
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][alert] send failed: %v", err)
	}
}
