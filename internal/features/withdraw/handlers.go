// Package withdraw — handlers.go обрабатывает /withdraw <сумма> [получатель].
// Заявки уходят операторам в канал проверки.
package withdraw

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

// Handler обрабатывает команды вывода.
type Handler struct {
	service      *Service
	actions      *actions.Service
	bot          *tgbotapi.BotAPI
	reviewChatID int64
}

// NewHandler создаёт новый обработчик вывода.
func NewHandler(service *Service, ac *actions.Service, bot *tgbotapi.BotAPI, reviewChatID int64) *Handler {
	return &Handler{service: service, actions: ac, bot: bot, reviewChatID: reviewChatID}
}

// HandleWithdraw обрабатывает /withdraw <сумма> [@получатель].
func (h *Handler) HandleWithdraw(ctx context.Context, chatID, userID int64, username string, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /withdraw сумма [@получатель]")
		return
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient := "@" + username
	if len(args) >= 2 {
		recipient = args[1]
	}

	actionKey := fmt.Sprintf("withdraw:%d:%s", amount, recipient)
	if err := h.actions.Guard(ctx, userID, actionKey); err != nil {
		if errors.Is(err, common.ErrTooFast) {
			h.sendMessage(chatID, "⏳ Слишком быстро, подождите пару секунд")
		} else {
			h.sendMessage(chatID, "⏳ Эта заявка уже оформляется")
		}
		return
	}

	w, err := h.service.Create(ctx, userID, amount, recipient)
	if err != nil {
		h.actions.Release(userID, actionKey)
		switch {
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно звёзд на балансе")
		case errors.Is(err, common.ErrPendingWithdrawalExists):
			h.sendMessage(chatID, "❌ У вас уже есть активная заявка на вывод")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Сумма меньше минимальной или некорректный получатель")
		default:
			log.WithError(err).Error("Ошибка создания заявки на вывод")
			h.sendMessage(chatID, "❌ Ошибка создания заявки")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📤 Заявка на вывод создана\n\nСписано: %s\nК выплате: %s\nПолучатель: %s\n\nОжидайте проверки оператором",
		common.FormatStars(w.Amount), common.FormatStars(w.Payout), w.Recipient,
	))

	msg := tgbotapi.NewMessage(h.reviewChatID, fmt.Sprintf(
		"📤 Вывод %s\nПользователь: %d\nСписано: %d\nК выплате: %d\nПолучатель: %s\n\n/approve_withdraw %s\n/reject_withdraw %s",
		w.ID, w.UserID, w.Amount, w.Payout, w.Recipient, w.ID, w.ID,
	))
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки в канал операторов")
	}
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
