// Package shop — handlers.go обрабатывает покупку звёзд:
// /buy <количество> <получатель>, /orders (история),
// /cancel <id> <причина>. Новые заказы дублируются в канал операторов.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/actions"
	"starbazar.ru/stars-bot/internal/features/settings"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service      *Service
	settings     *settings.Service
	actions      *actions.Service
	bot          *tgbotapi.BotAPI
	reviewChatID int64
}

// NewHandler создаёт новый обработчик магазина.
func NewHandler(service *Service, st *settings.Service, ac *actions.Service, bot *tgbotapi.BotAPI, reviewChatID int64) *Handler {
	return &Handler{service: service, settings: st, actions: ac, bot: bot, reviewChatID: reviewChatID}
}

// HandleBuy обрабатывает /buy <количество> [получатель].
// Без получателя звёзды зачисляются на аккаунт покупателя.
func (h *Handler) HandleBuy(ctx context.Context, chatID, userID int64, username string, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /buy количество [@получатель]")
		return
	}
	stars, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || stars <= 0 {
		h.sendMessage(chatID, "❌ Количество должно быть положительным числом")
		return
	}

	recipient := "@" + username
	if len(args) >= 2 {
		recipient = args[1]
	}

	// Дедупликация: двойной тап по кнопке не создаст два заказа.
	actionKey := fmt.Sprintf("buy:%d:%s", stars, recipient)
	if err := h.actions.Guard(ctx, userID, actionKey); err != nil {
		h.replyActionError(chatID, err)
		return
	}

	o, err := h.service.CreateOrder(ctx, userID, stars, recipient)
	if err != nil {
		h.actions.Release(userID, actionKey)
		if errors.Is(err, common.ErrInvalidAmount) {
			h.sendMessage(chatID, "❌ Некорректное количество звёзд или получатель")
		} else {
			log.WithError(err).Error("Ошибка создания заказа")
			h.sendMessage(chatID, "❌ Ошибка создания заказа")
		}
		return
	}

	details, _ := h.settings.PaymentDetails(ctx)
	text := fmt.Sprintf(
		"🧾 Заказ #%d создан\n\n"+
			"Звёзды: %s\n"+
			"Получатель: %s\n"+
			"К оплате: %s\n\n"+
			"Реквизиты:\n%s\n\n"+
			"После оплаты заказ проверит оператор. Отменить: /cancel %d",
		o.ID, common.FormatStars(o.Stars), o.Recipient,
		common.FormatPrice(o.Price), details, o.ID,
	)
	if o.DiscountPct > 0 {
		text += fmt.Sprintf("\n\n🎁 Применена скидка %d%%", o.DiscountPct)
	}
	h.sendMessage(chatID, text)

	h.notifyReview(fmt.Sprintf(
		"🆕 Заказ #%d\nПокупатель: %d\nЗвёзды: %d\nСумма: %s\nПолучатель: %s\n\n/approve_order %d\n/reject_order %d",
		o.ID, o.UserID, o.Stars, common.FormatPrice(o.Price), o.Recipient, o.ID, o.ID,
	))
}

// HandleCancel обрабатывает /cancel <id> <причина> — отмену своего заказа.
func (h *Handler) HandleCancel(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /cancel номер_заказа причина")
		return
	}
	orderID, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Номер заказа должен быть числом")
		return
	}
	reason := strings.Join(args[1:], " ")

	_, err = h.service.Cancel(ctx, userID, orderID, reason)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrReasonRequired):
			h.sendMessage(chatID, "❌ Укажите причину отмены: /cancel номер_заказа причина")
		case errors.Is(err, common.ErrNotFound):
			h.sendMessage(chatID, "❌ Заказ не найден")
		case errors.Is(err, common.ErrNoAccess):
			h.sendMessage(chatID, "❌ Это не ваш заказ")
		case errors.Is(err, common.ErrAlreadyProcessed):
			h.sendMessage(chatID, "❌ Заказ уже обработан, отмена невозможна")
		default:
			log.WithError(err).Error("Ошибка отмены заказа")
			h.sendMessage(chatID, "❌ Ошибка отмены заказа")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Заказ #%d отменён", orderID))
}

// HandleOrders обрабатывает /orders — историю покупок.
func (h *Handler) HandleOrders(ctx context.Context, chatID, userID int64) {
	purchases, err := h.service.UserPurchases(ctx, userID, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории покупок")
		h.sendMessage(chatID, "❌ Ошибка получения истории")
		return
	}
	if len(purchases) == 0 {
		h.sendMessage(chatID, "📋 У вас пока нет покупок")
		return
	}

	text := "📋 Ваши покупки:\n\n"
	for i, p := range purchases {
		text += fmt.Sprintf("%d. %s | %s за %s\n",
			i+1, common.FormatDateTime(p.CreatedAt),
			common.FormatStars(p.Stars), common.FormatPrice(p.Price))
	}
	h.sendMessage(chatID, text)
}

// NotifyUser отправляет пользователю уведомление о смене статуса заказа.
func (h *Handler) NotifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}

func (h *Handler) replyActionError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrTooFast):
		h.sendMessage(chatID, "⏳ Слишком быстро, подождите пару секунд")
	case errors.Is(err, common.ErrDuplicateAction):
		h.sendMessage(chatID, "⏳ Этот заказ уже оформляется")
	default:
		h.sendMessage(chatID, "❌ Ошибка, попробуйте позже")
	}
}

func (h *Handler) notifyReview(text string) {
	msg := tgbotapi.NewMessage(h.reviewChatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки в канал операторов")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
