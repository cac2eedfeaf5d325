// Package members — handlers.go обрабатывает /start и профиль.
// Аргумент /start может содержать реферальный код (ref_XXXX).
package members

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Handler обрабатывает команды пользователей.
type Handler struct {
	service     *Service
	bot         *tgbotapi.BotAPI
	botUsername string

	// onReferralAttached вызывается после успешной привязки реферала
	// (журнал реферальной программы).
	onReferralAttached func(ctx context.Context, referrerID, referredID int64)
}

// NewHandler создаёт новый обработчик пользователей.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, botUsername string) *Handler {
	return &Handler{service: service, bot: bot, botUsername: botUsername}
}

// SetReferralCallback подключает журнал реферальной программы.
func (h *Handler) SetReferralCallback(fn func(ctx context.Context, referrerID, referredID int64)) {
	h.onReferralAttached = fn
}

// HandleStart обрабатывает /start. Аргумент ref_<код> привязывает
// пригласившего; привязка работает только для новых пользователей.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, username, firstName string, args []string) {
	isNew, err := h.service.Register(ctx, userID, username, firstName)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации")
		h.sendMessage(chatID, "❌ Ошибка регистрации, попробуйте позже")
		return
	}

	if isNew && len(args) > 0 && strings.HasPrefix(args[0], "ref_") {
		code := strings.TrimPrefix(args[0], "ref_")
		if err := h.service.AttachReferrerByCode(ctx, userID, code); err == nil {
			if h.onReferralAttached != nil {
				if referrer, gerr := h.service.repo.GetUserByReferralCode(ctx, code); gerr == nil {
					h.onReferralAttached(ctx, referrer.UserID, userID)
				}
			}
			h.sendMessage(chatID, "🤝 Вы пришли по приглашению, бонус получит ваш друг с ваших покупок")
		}
	}

	h.sendMessage(chatID,
		"⭐ Добро пожаловать в магазин звёзд!\n\n"+
			"Команды:\n"+
			"/buy — купить звёзды\n"+
			"/balance — баланс\n"+
			"/profile — профиль\n"+
			"/promo <код> — активировать промокод\n"+
			"/ref — реферальная программа\n"+
			"/games — мини-игры\n"+
			"/exchange — обмен игровой валюты\n"+
			"/withdraw — вывод звёзд\n"+
			"/support — поддержка")
}

// HandleProfile обрабатывает /profile — показывает профиль пользователя.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	u, err := h.service.GetUser(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		h.sendMessage(chatID, "❌ Профиль не найден, отправьте /start")
		return
	}

	text := fmt.Sprintf(
		"👤 Профиль\n\n"+
			"ID: %d\n"+
			"Роль: %s\n"+
			"Баланс: %s\n"+
			"Виртуальный баланс: %d\n"+
			"Зарегистрирован: %s",
		u.UserID, u.Role.Title(), common.FormatStars(u.Balance),
		u.VirtualBalance, common.FormatDateTime(u.CreatedAt),
	)
	h.sendMessage(chatID, text)
}

// HandleReferralLink обрабатывает /ref — показывает ссылку и статистику.
// Статистику дополняет реферальный сервис через бот-роутер.
func (h *Handler) HandleReferralLink(ctx context.Context, chatID, userID int64) string {
	u, err := h.service.GetUser(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ Профиль не найден, отправьте /start")
		return ""
	}
	return fmt.Sprintf("https://t.me/%s?start=ref_%s", h.botUsername, u.ReferralCode)
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
