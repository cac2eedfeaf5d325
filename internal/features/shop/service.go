// Package shop — service.go содержит бизнес-логику магазина звёзд.
// Деньги не списываются при создании заказа: пользователь платит
// вне бота, оператор подтверждает оплату, и только одобрение
// начисляет звёзды.
package shop

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
	"starbazar.ru/stars-bot/internal/features/promo"
	"starbazar.ru/stars-bot/internal/features/referral"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/wallet"
)

// Service управляет заказами на покупку звёзд.
type Service struct {
	repo     *Repository
	settings *settings.Service
	promo    *promo.Service
	referral *referral.Service
	wallet   *wallet.Service
	cfg      *config.Config
	now      common.Clock
}

// NewService создаёт новый сервис магазина.
func NewService(repo *Repository, st *settings.Service, pr *promo.Service, rf *referral.Service, w *wallet.Service, cfg *config.Config, now common.Clock) *Service {
	return &Service{repo: repo, settings: st, promo: pr, referral: rf, wallet: w, cfg: cfg, now: now}
}

// Quote — расчёт цены заказа до его создания.
type Quote struct {
	Stars          int64
	Price          string
	DiscountPct    int
	DiscountSource string
}

// QuoteOrder рассчитывает цену заказа с учётом лучшей доступной скидки.
func (s *Service) QuoteOrder(ctx context.Context, userID, stars int64) (*Quote, error) {
	if stars < s.cfg.ShopMinStars || stars > s.cfg.ShopMaxStars {
		return nil, common.ErrInvalidAmount
	}
	starPrice, err := s.settings.StarPrice(ctx)
	if err != nil {
		return nil, err
	}

	q := &Quote{Stars: stars}
	if d, err := s.promo.BestDiscount(ctx, userID); err != nil {
		return nil, err
	} else if d != nil {
		q.DiscountPct = d.Percent
		q.DiscountSource = d.SourceLink
	}
	q.Price = CalcPrice(stars, starPrice, q.DiscountPct).StringFixed(2)
	return q, nil
}

// CreateOrder создаёт заказ с зафиксированной ценой. Скидка, если была,
// расходуется в той же транзакции.
func (s *Service) CreateOrder(ctx context.Context, userID, stars int64, recipient string) (*Order, error) {
	q, err := s.QuoteOrder(ctx, userID, stars)
	if err != nil {
		return nil, err
	}

	recipient = common.NormalizeUsername(recipient)
	if recipient == "" {
		return nil, common.ErrInvalidAmount
	}

	starPrice, err := s.settings.StarPrice(ctx)
	if err != nil {
		return nil, err
	}
	o := &Order{
		UserID:      userID,
		Stars:       stars,
		Price:       CalcPrice(stars, starPrice, q.DiscountPct),
		DiscountPct: q.DiscountPct,
		Recipient:   recipient,
	}
	if err := s.repo.CreateOrder(ctx, o, q.DiscountSource); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": o.ID,
		"user_id":  userID,
		"stars":    stars,
		"price":    o.Price.StringFixed(2),
		"discount": o.DiscountPct,
	}).Info("Заказ создан")
	return o, nil
}

// Approve одобряет заказ: начисляет звёзды, пишет историю покупок
// и запускает реферальную выплату. Повторное одобрение невозможно.
func (s *Service) Approve(ctx context.Context, orderID int) (*Order, error) {
	o, purchaseID, err := s.repo.Approve(ctx, orderID, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(o.UserID)

	log.WithFields(log.Fields{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"stars":    o.Stars,
	}).Info("Заказ одобрен")

	// Реферальная выплата считается от итоговой цены покупки.
	// Она идемпотентна, её сбой не откатывает заказ.
	if err := s.referral.OnPurchase(ctx, o.UserID, purchaseID, o.FinalPrice()); err != nil {
		log.WithError(err).WithField("order_id", o.ID).Error("Ошибка реферальной выплаты")
	}
	return o, nil
}

// Reject отклоняет заказ. Деньги не возвращаются: при создании заказа
// ничего не списывалось.
func (s *Service) Reject(ctx context.Context, orderID int) (*Order, error) {
	o, err := s.repo.SetStatus(ctx, orderID, StatusRejected, s.now())
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"order_id": o.ID, "user_id": o.UserID}).Info("Заказ отклонён")
	return o, nil
}

// Cancel отменяет заказ по инициативе пользователя. Отменить можно
// только свой необработанный заказ, причина обязательна и сохраняется
// в заказе.
func (s *Service) Cancel(ctx context.Context, userID int64, orderID int, reason string) (*Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, common.ErrReasonRequired
	}
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, common.ErrNoAccess
	}
	o, err = s.repo.Cancel(ctx, orderID, reason, s.now())
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"order_id": o.ID,
		"user_id":  userID,
		"reason":   reason,
	}).Info("Заказ отменён пользователем")
	return o, nil
}

// GetOrder возвращает заказ по ID.
func (s *Service) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// PendingOrders возвращает очередь необработанных заказов.
func (s *Service) PendingOrders(ctx context.Context, limit int) ([]*Order, error) {
	return s.repo.PendingOrders(ctx, limit)
}

// UserPurchases возвращает историю покупок пользователя.
func (s *Service) UserPurchases(ctx context.Context, userID int64, limit int) ([]*Purchase, error) {
	return s.repo.UserPurchases(ctx, userID, limit)
}
