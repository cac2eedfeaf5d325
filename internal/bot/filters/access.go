// Package filters содержит фильтры доступа к боту.
// Бот работает только в личных сообщениях; групповые чаты игнорируются.
package filters

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/members"
	"starbazar.ru/stars-bot/internal/features/settings"
)

// AccessFilter решает, обрабатывать ли сообщение: только личные чаты,
// не забаненные пользователи, режим техработ пропускает только персонал.
type AccessFilter struct {
	members  *members.Service
	settings *settings.Service
}

// NewAccessFilter создаёт фильтр доступа.
func NewAccessFilter(m *members.Service, st *settings.Service) *AccessFilter {
	return &AccessFilter{members: m, settings: st}
}

// Decision — результат проверки доступа.
type Decision int

const (
	// Allow — обрабатываем сообщение
	Allow Decision = iota
	// Deny — молча игнорируем
	Deny
	// DenyMaintenance — отвечаем сообщением о техработах
	DenyMaintenance
	// DenyBanned — пользователь забанен
	DenyBanned
)

// Check проверяет доступ пользователя к боту.
func (f *AccessFilter) Check(ctx context.Context, message *tgbotapi.Message) Decision {
	if message == nil || message.From == nil || message.Chat == nil {
		return Deny
	}
	if !message.Chat.IsPrivate() {
		return Deny
	}
	userID := message.From.ID

	if err := f.members.CheckAccess(ctx, userID); err != nil {
		if errors.Is(err, common.ErrUserBanned) {
			return DenyBanned
		}
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка проверки доступа")
		return Deny
	}

	if f.settings.MaintenanceEnabled(ctx) {
		u, err := f.members.GetUser(ctx, userID)
		if err != nil || !u.Role.AtLeast(members.RoleModer) {
			return DenyMaintenance
		}
	}

	return Allow
}
