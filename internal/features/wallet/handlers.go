// Package wallet — handlers.go обрабатывает команду /balance.
package wallet

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Handler обрабатывает команды кошелька.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик кошелька.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleBalance обрабатывает /balance — показывает оба счёта.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	b, err := h.service.GetBalances(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Ошибка получения баланса, отправьте /start")
		return
	}

	text := fmt.Sprintf(
		"💰 Баланс: %s\n🎮 Виртуальный баланс: %d",
		common.FormatStars(b.Main), b.Virtual,
	)
	h.sendMessage(chatID, text)
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
