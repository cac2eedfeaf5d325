// Package exchange — service.go содержит бизнес-логику обмена между
// основным и виртуальным балансами. У каждого направления свой курс
// и своя комиссия.
package exchange

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/wallet"
)

// Service управляет заявками на обмен.
type Service struct {
	repo     *Repository
	settings *settings.Service
	wallet   *wallet.Service
	now      common.Clock
}

// NewService создаёт новый сервис обменов.
func NewService(repo *Repository, st *settings.Service, w *wallet.Service, now common.Clock) *Service {
	return &Service{repo: repo, settings: st, wallet: w, now: now}
}

// Create создаёт заявку на обмен в указанном направлении. Исходный
// баланс списывается сразу, сумма к начислению считается по курсу и
// комиссии направления из настроек.
func (s *Service) Create(ctx context.Context, userID, amount int64, direction Direction) (*Exchange, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if !direction.Valid() {
		return nil, common.ErrInvalidAmount
	}

	var rate, commission float64
	var err error
	if direction == DirRealToVirtual {
		rate, err = s.settings.RealToVirtualRate(ctx)
		if err != nil {
			return nil, err
		}
		commission, err = s.settings.ExchangeCommission(ctx)
	} else {
		rate, err = s.settings.VirtualToRealRate(ctx)
		if err != nil {
			return nil, err
		}
		commission, err = s.settings.VirtualToRealCommission(ctx)
	}
	if err != nil {
		return nil, err
	}

	received := CalcReceived(amount, rate, commission)
	if received <= 0 {
		return nil, common.ErrInvalidAmount
	}

	e := &Exchange{
		ID:        uuid.New(),
		UserID:    userID,
		Direction: direction,
		Amount:    amount,
		Received:  received,
	}
	if err := s.repo.Create(ctx, e, s.now()); err != nil {
		return nil, err
	}
	s.wallet.Invalidate(userID)

	log.WithFields(log.Fields{
		"exchange_id": e.ID,
		"user_id":     userID,
		"direction":   direction,
		"amount":      amount,
		"received":    received,
	}).Info("Заявка на обмен создана")
	return e, nil
}

// Approve одобряет заявку и начисляет средства на целевой баланс.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Exchange, error) {
	e, err := s.repo.Approve(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(e.UserID)
	log.WithFields(log.Fields{"exchange_id": e.ID, "user_id": e.UserID}).Info("Обмен одобрен")
	return e, nil
}

// Reject отклоняет заявку и возвращает списанное на исходный баланс.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Exchange, error) {
	e, err := s.repo.Reject(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(e.UserID)
	log.WithFields(log.Fields{"exchange_id": e.ID, "user_id": e.UserID}).Info("Обмен отклонён, средства возвращены")
	return e, nil
}

// Get возвращает заявку по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Exchange, error) {
	return s.repo.Get(ctx, id)
}

// Pending возвращает очередь необработанных заявок.
func (s *Service) Pending(ctx context.Context, limit int) ([]*Exchange, error) {
	return s.repo.Pending(ctx, limit)
}
