// Package promo — handlers.go обрабатывает /promo (активация промокода)
// и активацию ссылок-скидок через аргумент /start (sale_<код>).
package promo

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Handler обрабатывает команды промокодов.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик промокодов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandlePromo обрабатывает /promo <код> — применяет промокод-скидку
// к последнему необработанному заказу пользователя.
func (h *Handler) HandlePromo(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /promo КОД")
		return
	}

	p, orderID, discount, err := h.service.Apply(ctx, userID, args[0])
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPromoNotFound):
			h.sendMessage(chatID, "❌ Промокод не найден")
		case errors.Is(err, common.ErrPromoExpired):
			h.sendMessage(chatID, "❌ Срок действия промокода истёк")
		case errors.Is(err, common.ErrPromoExhausted):
			h.sendMessage(chatID, "❌ Промокод уже использован максимальное количество раз")
		case errors.Is(err, common.ErrPromoAlreadyUsed):
			h.sendMessage(chatID, "❌ Вы уже активировали этот промокод")
		case errors.Is(err, common.ErrNotFound):
			h.sendMessage(chatID, "❌ Нет подходящего заказа. Сначала создайте заказ через /buy")
		default:
			log.WithError(err).Error("Ошибка применения промокода")
			h.sendMessage(chatID, "❌ Ошибка применения промокода")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Промокод %s применён к заказу #%d: скидка %d%% (−%s ₽)",
		p.Code, orderID, p.Percent, discount.StringFixed(2)))
}

// HandleDiscountStart активирует ссылку-скидку из аргумента /start.
func (h *Handler) HandleDiscountStart(ctx context.Context, chatID, userID int64, linkCode string) {
	d, err := h.service.ActivateDiscount(ctx, userID, linkCode)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDiscountNotFound):
			// Битую ссылку молча игнорируем, пользователь просто попал в /start.
		case errors.Is(err, common.ErrDiscountExhausted):
			h.sendMessage(chatID, "❌ Лимит использований этой ссылки исчерпан")
		default:
			log.WithError(err).Error("Ошибка активации скидки")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🎁 Вам доступна скидка %d%% на покупку звёзд!", d.Percent))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
