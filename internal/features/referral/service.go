// Package referral — service.go содержит бизнес-логику реферальной
// программы: ступени вознаграждения и идемпотентная выплата за покупку.
package referral

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/members"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/wallet"
)

// Service управляет реферальной программой.
type Service struct {
	repo     *Repository
	members  *members.Service
	settings *settings.Service
	wallet   *wallet.Service
	now      common.Clock
}

// NewService создаёт новый сервис рефералов.
func NewService(repo *Repository, m *members.Service, st *settings.Service, w *wallet.Service, now common.Clock) *Service {
	return &Service{repo: repo, members: m, settings: st, wallet: w, now: now}
}

// RewardAmount вычисляет вознаграждение от итоговой суммы покупки
// в рублях (после скидок) при проценте percent. Округление вниз,
// минимум 0.
func RewardAmount(price decimal.Decimal, percent int) int64 {
	if price.IsNegative() || price.IsZero() || percent <= 0 {
		return 0
	}
	return price.Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// PercentFor возвращает текущий процент вознаграждения пригласившего
// исходя из числа его рефералов и настроенных ступеней.
func (s *Service) PercentFor(ctx context.Context, referrerID int64) (int, error) {
	levels, err := s.settings.ReferralLevels(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.members.CountReferrals(ctx, referrerID)
	if err != nil {
		return 0, err
	}
	return settings.PercentFor(levels, n), nil
}

// OnPurchase выплачивает вознаграждение пригласившему за одобренную
// покупку приглашённого. price — итоговая сумма покупки в рублях,
// после всех скидок. Вызывается из транзакционного хука магазина.
//
// Повторный вызов за ту же покупку безопасен: уникальность пары
// (приглашённый, покупка) в БД гарантирует не более одной выплаты.
// Отсутствие пригласившего не является ошибкой.
func (s *Service) OnPurchase(ctx context.Context, buyerID int64, purchaseID int, price decimal.Decimal) error {
	buyer, err := s.members.GetUser(ctx, buyerID)
	if err != nil {
		return err
	}
	if buyer.ReferrerID == nil {
		return nil
	}
	referrerID := *buyer.ReferrerID

	percent, err := s.PercentFor(ctx, referrerID)
	if err != nil {
		return err
	}
	amount := RewardAmount(price, percent)

	reward := &Reward{
		ReferrerID: referrerID,
		ReferredID: buyerID,
		PurchaseID: purchaseID,
		Amount:     amount,
		Percent:    percent,
	}
	if err := s.repo.PayReward(ctx, reward, s.now()); err != nil {
		if errors.Is(err, common.ErrAlreadyProcessed) {
			log.WithFields(log.Fields{
				"referred_id": buyerID,
				"purchase_id": purchaseID,
			}).Warn("Повторная выплата реферального вознаграждения отклонена")
			return nil
		}
		return err
	}
	s.wallet.Invalidate(referrerID)

	log.WithFields(log.Fields{
		"referrer_id": referrerID,
		"referred_id": buyerID,
		"purchase_id": purchaseID,
		"amount":      amount,
		"percent":     percent,
	}).Info("Реферальное вознаграждение выплачено")
	return nil
}

// Stats возвращает сводку реферальной программы пользователя.
func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	n, err := s.members.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.repo.TotalEarned(ctx, userID)
	if err != nil {
		return nil, err
	}
	levels, err := s.settings.ReferralLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Referrals:   n,
		TotalEarned: earned,
		Percent:     settings.PercentFor(levels, n),
	}, nil
}

// LogAttached записывает привязку реферала в журнал.
func (s *Service) LogAttached(ctx context.Context, referrerID, referredID int64) error {
	return s.repo.Log(ctx, &LogEntry{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Event:      EventAttached,
	})
}

// RecentLogs возвращает последние события журнала (для админки).
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]*LogEntry, error) {
	return s.repo.RecentLogs(ctx, limit)
}
