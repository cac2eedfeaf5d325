// Package promo — service.go содержит бизнес-логику промокодов и скидок.
// Порядок проверок при активации фиксирован: не найден → истёк →
// исчерпан → уже использован. Пользователь всегда получает самую
// раннюю применимую причину отказа.
package promo

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Service управляет промокодами и ссылками-скидками.
type Service struct {
	repo *Repository
	now  common.Clock
}

// NewService создаёт новый сервис промокодов.
func NewService(repo *Repository, now common.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// NormalizeCode приводит промокод к каноническому виду: верхний регистр,
// без пробелов по краям.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// checkApplicable проверяет срок, лимит и однократность в фиксированном
// порядке. Вынесено из CheckPromocode ради предсказуемости причин отказа.
func checkApplicable(p *Promocode, used bool, now time.Time) error {
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return common.ErrPromoExpired
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		return common.ErrPromoExhausted
	}
	if used {
		return common.ErrPromoAlreadyUsed
	}
	return nil
}

// CheckPromocode проверяет применимость промокода для пользователя,
// не активируя его. Возвращает промокод или ошибку отказа.
func (s *Service) CheckPromocode(ctx context.Context, userID int64, code string) (*Promocode, error) {
	p, err := s.repo.GetPromocode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	used, err := s.repo.HasUsed(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}
	if err := checkApplicable(p, used, s.now()); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply применяет промокод к последнему необработанному заказу
// пользователя: скидка записывается в заказ, код помечается
// использованным. Проверки повторяются внутри транзакции на уровне БД,
// так что гонка двух одновременных активаций не превысит лимит кода.
// Возвращает промокод, номер заказа и сумму скидки.
func (s *Service) Apply(ctx context.Context, userID int64, code string) (*Promocode, int, decimal.Decimal, error) {
	p, err := s.CheckPromocode(ctx, userID, code)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}

	orderID, discount, err := s.repo.ApplyToOrder(ctx, userID, p.ID, p.Percent)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"code":     p.Code,
		"order_id": orderID,
		"discount": discount.StringFixed(2),
	}).Info("Промокод применён к заказу")
	return p, orderID, discount, nil
}

// CreatePromocode создаёт промокод (операция админки).
// ttl == 0 означает бессрочный, maxUses == 0 — без лимита.
func (s *Service) CreatePromocode(ctx context.Context, code string, percent, maxUses int, ttl time.Duration) (*Promocode, error) {
	if percent <= 0 || percent > 100 {
		return nil, common.ErrInvalidAmount
	}
	p := &Promocode{
		Code:    NormalizeCode(code),
		Percent: percent,
		MaxUses: maxUses,
	}
	if ttl > 0 {
		expires := s.now().Add(ttl)
		p.ExpiresAt = &expires
	}
	if err := s.repo.CreatePromocode(ctx, p); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"code": p.Code, "percent": percent}).Info("Промокод создан")
	return p, nil
}

// DeletePromocode удаляет промокод (операция админки).
func (s *Service) DeletePromocode(ctx context.Context, code string) error {
	return s.repo.DeletePromocode(ctx, NormalizeCode(code))
}

// ListPromocodes возвращает все промокоды (операция админки).
func (s *Service) ListPromocodes(ctx context.Context) ([]*Promocode, error) {
	return s.repo.ListPromocodes(ctx)
}

// CreateDiscountLink создаёт ссылку-скидку (операция админки).
func (s *Service) CreateDiscountLink(ctx context.Context, linkCode string, percent, maxUses int) (*DiscountLink, error) {
	if percent <= 0 || percent > 100 {
		return nil, common.ErrInvalidAmount
	}
	d := &DiscountLink{
		LinkCode: strings.TrimSpace(linkCode),
		Percent:  percent,
		MaxUses:  maxUses,
	}
	if err := s.repo.CreateDiscountLink(ctx, d); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"link": d.LinkCode, "percent": percent}).Info("Ссылка-скидка создана")
	return d, nil
}

// ActivateDiscount выдаёт пользователю скидку по коду ссылки.
// Повторная активация той же ссылки не является ошибкой и не
// расходует лимит.
func (s *Service) ActivateDiscount(ctx context.Context, userID int64, linkCode string) (*DiscountLink, error) {
	d, err := s.repo.GetDiscountLink(ctx, strings.TrimSpace(linkCode))
	if err != nil {
		return nil, err
	}
	if d.MaxUses > 0 && d.UsedCount >= d.MaxUses {
		return nil, common.ErrDiscountExhausted
	}
	if err := s.repo.ActivateDiscount(ctx, userID, d.LinkCode, d.Percent); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"link":    d.LinkCode,
		"percent": d.Percent,
	}).Info("Скидка активирована")
	return d, nil
}

// BestDiscount возвращает лучшую доступную скидку пользователя или nil.
func (s *Service) BestDiscount(ctx context.Context, userID int64) (*UserDiscount, error) {
	return s.repo.BestDiscount(ctx, userID)
}

// Repo возвращает репозиторий для составных транзакций (списание
// скидки в транзакции заказа).
func (s *Service) Repo() *Repository {
	return s.repo
}
