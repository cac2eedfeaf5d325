// Package actions реализует защиту от повторных и слишком частых
// действий. Два уровня:
//   - дедупликация: одно и то же действие (пользователь + ключ)
//     обрабатывается один раз в окне TTL
//   - кулдаун: между любыми значимыми действиями пользователя
//     должен пройти минимальный интервал
//
// Быстрый путь — кэш в памяти, страховка — таблица processed_actions.
package actions

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/cache"
	"starbazar.ru/stars-bot/internal/common"
)

// Service управляет дедупликацией и кулдаунами.
type Service struct {
	repo     *Repository
	cache    *cache.Cache
	dedupTTL time.Duration
	cooldown time.Duration
	now      common.Clock
}

// NewService создаёт новый сервис действий.
func NewService(repo *Repository, c *cache.Cache, dedupTTL, cooldown time.Duration, now common.Clock) *Service {
	return &Service{repo: repo, cache: c, dedupTTL: dedupTTL, cooldown: cooldown, now: now}
}

func dedupKey(userID int64, action string) string {
	return fmt.Sprintf("action:%d:%s", userID, action)
}

func cooldownKey(userID int64) string {
	return fmt.Sprintf("cooldown:%d", userID)
}

// Guard проверяет действие перед обработкой:
//  1. кулдаун с прошлого действия → ErrTooFast
//  2. дубликат в окне TTL → ErrDuplicateAction
//
// При успехе действие считается начатым: ставится отметка в кэше
// и в таблице processed_actions.
func (s *Service) Guard(ctx context.Context, userID int64, action string) error {
	if !s.cache.SetIfAbsent(cooldownKey(userID), "1", s.cooldown) {
		return common.ErrTooFast
	}

	if !s.cache.SetIfAbsent(dedupKey(userID, action), "1", s.dedupTTL) {
		return common.ErrDuplicateAction
	}

	first, err := s.repo.MarkProcessed(ctx, dedupKey(userID, action), userID)
	if err != nil {
		// БД недоступна, но кэш отметку уже держит. Пропускаем действие,
		// иначе любой сбой БД заблокирует бота целиком.
		log.WithError(err).Warn("Не удалось записать действие в БД, работаем по кэшу")
		return nil
	}
	if !first {
		return common.ErrDuplicateAction
	}
	return nil
}

// CheckCooldown проверяет только кулдаун, не ставя отметок дедупликации.
// Для действий, которые допустимо повторять (навигация по меню).
func (s *Service) CheckCooldown(userID int64) error {
	if !s.cache.SetIfAbsent(cooldownKey(userID), "1", s.cooldown) {
		return common.ErrTooFast
	}
	return nil
}

// Release снимает отметку дедупликации: действие не удалось и его
// можно повторить немедленно.
func (s *Service) Release(userID int64, action string) {
	s.cache.Delete(dedupKey(userID, action))
}

// Cleanup удаляет устаревшие записи из таблицы и кэша.
// Вызывается планировщиком.
func (s *Service) Cleanup(ctx context.Context) error {
	removed := s.cache.Cleanup()
	cutoff := s.now().Add(-24 * time.Hour)
	dbRemoved, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"cache": removed,
		"db":    dbRemoved,
	}).Debug("Очистка журнала действий выполнена")
	return nil
}
