// Package wallet — service.go содержит бизнес-логику кошелька.
// Валидация сумм, кэширование балансов, инвалидация кэша при изменениях.
package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/cache"
	"starbazar.ru/stars-bot/internal/common"
)

// balanceCacheTTL — сколько живёт закэшированный баланс.
// Любое изменение инвалидирует кэш немедленно, так что TTL
// защищает только от правок в обход бота.
const balanceCacheTTL = 2 * time.Minute

// Service управляет двухвалютным кошельком.
type Service struct {
	repo  *Repository
	cache *cache.Cache
	now   common.Clock
}

// NewService создаёт новый сервис кошелька.
func NewService(repo *Repository, c *cache.Cache, now common.Clock) *Service {
	return &Service{repo: repo, cache: c, now: now}
}

func balanceCacheKey(userID int64) string {
	return fmt.Sprintf("balance:%d", userID)
}

// GetBalances возвращает оба счёта пользователя, используя кэш.
func (s *Service) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	if raw, ok := s.cache.Get(balanceCacheKey(userID)); ok {
		if b, err := parseBalances(userID, raw); err == nil {
			return b, nil
		}
		// Битое значение в кэше просто выбрасываем.
		s.cache.Delete(balanceCacheKey(userID))
	}

	b, err := s.repo.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(balanceCacheKey(userID), formatBalances(b), balanceCacheTTL)
	return b, nil
}

// Credit начисляет amount на счёт kind и инвалидирует кэш.
func (s *Service) Credit(ctx context.Context, userID, amount int64, kind BalanceKind) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, userID, amount, kind, s.now()); err != nil {
		return err
	}
	s.Invalidate(userID)
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"kind":    kind,
	}).Debug("Начисление выполнено")
	return nil
}

// Debit списывает amount со счёта kind и инвалидирует кэш.
// Возвращает ErrInsufficientFunds, если средств не хватает.
func (s *Service) Debit(ctx context.Context, userID, amount int64, kind BalanceKind) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Debit(ctx, userID, amount, kind, s.now()); err != nil {
		return err
	}
	s.Invalidate(userID)
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"kind":    kind,
	}).Debug("Списание выполнено")
	return nil
}

// Invalidate сбрасывает кэш баланса пользователя. Вызывается всеми
// операциями, меняющими баланс, включая составные транзакции
// других сервисов.
func (s *Service) Invalidate(userID int64) {
	s.cache.Delete(balanceCacheKey(userID))
}

// Repo возвращает репозиторий для составных транзакций других сервисов.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Кэш хранит строки, баланс сериализуем как "main|virtual".

func formatBalances(b *Balances) string {
	return strconv.FormatInt(b.Main, 10) + "|" + strconv.FormatInt(b.Virtual, 10)
}

func parseBalances(userID int64, raw string) (*Balances, error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("некорректный формат кэша баланса: %q", raw)
	}
	main, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, err
	}
	virtual, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, err
	}
	return &Balances{UserID: userID, Main: main, Virtual: virtual}, nil
}
