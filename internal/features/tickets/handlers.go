// Package tickets — handlers.go обрабатывает /support и переписку
// по открытому обращению.
package tickets

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Handler обрабатывает команды поддержки.
type Handler struct {
	service      *Service
	bot          *tgbotapi.BotAPI
	reviewChatID int64
}

// NewHandler создаёт новый обработчик поддержки.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, reviewChatID int64) *Handler {
	return &Handler{service: service, bot: bot, reviewChatID: reviewChatID}
}

// HandleSupport обрабатывает /support <текст> — создаёт обращение
// либо дописывает сообщение в уже открытое.
func (h *Handler) HandleSupport(ctx context.Context, chatID, userID int64, args []string) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		h.sendMessage(chatID, "❌ Формат: /support текст обращения")
		return
	}

	existing, err := h.service.OpenTicketOf(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки обращений")
		h.sendMessage(chatID, "❌ Ошибка, попробуйте позже")
		return
	}

	if existing != nil {
		if _, err := h.service.Reply(ctx, existing.ID, userID, text); err != nil {
			log.WithError(err).Error("Ошибка записи сообщения в обращение")
			h.sendMessage(chatID, "❌ Ошибка, попробуйте позже")
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("✉️ Сообщение добавлено к обращению #%d", existing.ID))
		h.notifyReview(fmt.Sprintf("✉️ Обращение #%d, новое сообщение от %d:\n%s", existing.ID, userID, text))
		return
	}

	t, err := h.service.Create(ctx, userID, common.TruncateText(text, 64), text)
	if err != nil {
		log.WithError(err).Error("Ошибка создания обращения")
		h.sendMessage(chatID, "❌ Ошибка создания обращения")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Обращение #%d создано, поддержка ответит здесь", t.ID))
	h.notifyReview(fmt.Sprintf("🆘 Новое обращение #%d от %d:\n%s\n\nОтвет: /reply %d текст\nЗакрыть: /close %d", t.ID, userID, text, t.ID, t.ID))
}

// NotifyUser отправляет пользователю ответ поддержки.
func (h *Handler) NotifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
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
