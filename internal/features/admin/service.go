// Package admin — service.go содержит логику аутентификации, управления
// сессиями и state-машину для пошаговых админ-действий.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
)

// Service управляет админ-панелью.
type Service struct {
	repo     *Repository
	cfg      *config.Config
	now      common.Clock
	states   map[int64]*State // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админ-панели.
func NewService(repo *Repository, cfg *config.Config, now common.Clock) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		now:    now,
		states: make(map[int64]*State),
	}
}

// Login проверяет пароль администратора с использованием Argon2id.
// Защита от brute-force: 3 неудачные попытки = блокировка на 1 час.
// Успешный вход открывает сессию на 24 часа.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	now := s.now()

	attempts, err := s.repo.RecentAttempts(ctx, userID, 1*time.Hour, now)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	if err := s.repo.RecordAttempt(ctx, userID, match, now); err != nil {
		log.WithError(err).Error("Ошибка записи попытки входа")
	}

	if !match {
		log.WithField("user_id", userID).Warn("Неудачная попытка входа в админку")
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:    userID,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Администратор вошёл в панель")
	return nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeleteSession(ctx, userID)
}

// HasActiveSession проверяет, есть ли у пользователя живая сессия.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.repo.GetActiveSession(ctx, userID, s.now())
	return err == nil && session != nil
}

// LogAction записывает админ-действие в журнал.
func (s *Service) LogAction(ctx context.Context, adminID int64, action, details string) {
	err := s.repo.Log(ctx, &LogEntry{AdminID: adminID, Action: action, Details: details})
	if err != nil {
		log.WithError(err).Error("Ошибка записи журнала админки")
	}
}

// RecentLogs возвращает последние записи журнала.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]*LogEntry, error) {
	return s.repo.RecentLogs(ctx, limit)
}

// Stats возвращает сводку по магазину.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// GetState возвращает текущее состояние диалога или nil.
func (s *Service) GetState(userID int64) *State {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	if s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, name string, data any) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &State{
		Name:      name,
		Data:      data,
		ExpiresAt: s.now().Add(5 * time.Minute),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
