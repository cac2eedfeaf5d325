// Package exchange — handlers.go обрабатывает /exchange <направление> <сумма>.
// Заявки уходят операторам в канал проверки.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/actions"
)

// Handler обрабатывает команды обмена.
type Handler struct {
	service      *Service
	actions      *actions.Service
	bot          *tgbotapi.BotAPI
	reviewChatID int64
}

// NewHandler создаёт новый обработчик обмена.
func NewHandler(service *Service, ac *actions.Service, bot *tgbotapi.BotAPI, reviewChatID int64) *Handler {
	return &Handler{service: service, actions: ac, bot: bot, reviewChatID: reviewChatID}
}

// HandleExchange обрабатывает /exchange <real|virtual> <сумма> —
// заявку на обмен между балансами. real — с основного на виртуальный,
// virtual — с виртуального на основной.
func (h *Handler) HandleExchange(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /exchange real|virtual сумма")
		return
	}

	var direction Direction
	switch args[0] {
	case "real":
		direction = DirRealToVirtual
	case "virtual":
		direction = DirVirtualToReal
	default:
		h.sendMessage(chatID, "❌ Направление: real (основной → виртуальный) или virtual (виртуальный → основной)")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	actionKey := fmt.Sprintf("exchange:%s:%d", direction, amount)
	if err := h.actions.Guard(ctx, userID, actionKey); err != nil {
		if errors.Is(err, common.ErrTooFast) {
			h.sendMessage(chatID, "⏳ Слишком быстро, подождите пару секунд")
		} else {
			h.sendMessage(chatID, "⏳ Эта заявка уже оформляется")
		}
		return
	}

	e, err := h.service.Create(ctx, userID, amount, direction)
	if err != nil {
		h.actions.Release(userID, actionKey)
		switch {
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно средств на исходном балансе")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Некорректная сумма обмена")
		default:
			log.WithError(err).Error("Ошибка создания заявки на обмен")
			h.sendMessage(chatID, "❌ Ошибка создания заявки")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🔄 Заявка на обмен создана (%s)\n\nСписано: %d\nК начислению: %d\n\nОжидайте проверки оператором",
		directionLabel(e.Direction), e.Amount, e.Received,
	))

	msg := tgbotapi.NewMessage(h.reviewChatID, fmt.Sprintf(
		"🔄 Обмен %s (%s)\nПользователь: %d\nСписано: %d\nК начислению: %d\n\n/approve_exchange %s\n/reject_exchange %s",
		e.ID, directionLabel(e.Direction), e.UserID, e.Amount, e.Received, e.ID, e.ID,
	))
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки в канал операторов")
	}
}

// directionLabel — человекочитаемое направление обмена.
func directionLabel(d Direction) string {
	if d == DirRealToVirtual {
		return "основной → виртуальный"
	}
	return "виртуальный → основной"
}

// NotifyUser отправляет пользователю уведомление о статусе заявки.
func (h *Handler) NotifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
