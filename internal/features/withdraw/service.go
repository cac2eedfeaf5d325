// Package withdraw — service.go содержит бизнес-логику вывода звёзд.
// Баланс списывается при создании заявки, комиссия берётся из настроек.
package withdraw

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/wallet"
)

// Service управляет заявками на вывод.
type Service struct {
	repo     *Repository
	settings *settings.Service
	wallet   *wallet.Service
	now      common.Clock
}

// NewService создаёт новый сервис выводов.
func NewService(repo *Repository, st *settings.Service, w *wallet.Service, now common.Clock) *Service {
	return &Service{repo: repo, settings: st, wallet: w, now: now}
}

// Create создаёт заявку на вывод. Проверки: минимальная сумма,
// отсутствие другой активной заявки, достаточность баланса.
func (s *Service) Create(ctx context.Context, userID, amount int64, recipient string) (*Withdrawal, error) {
	min, err := s.settings.WithdrawMin(ctx)
	if err != nil {
		return nil, err
	}
	if amount < min {
		return nil, common.ErrInvalidAmount
	}

	recipient = common.NormalizeUsername(recipient)
	if recipient == "" {
		return nil, common.ErrInvalidAmount
	}

	// Быстрая проверка до списания. Гонку всё равно ловит уникальный
	// индекс в репозитории.
	if pending, err := s.repo.GetPending(ctx, userID); err != nil {
		return nil, err
	} else if pending != nil {
		return nil, common.ErrPendingWithdrawalExists
	}

	commission, err := s.settings.WithdrawCommission(ctx)
	if err != nil {
		return nil, err
	}
	payout := CalcPayout(amount, commission)
	if payout <= 0 {
		return nil, common.ErrInvalidAmount
	}

	w := &Withdrawal{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Payout:    payout,
		Recipient: recipient,
	}
	if err := s.repo.Create(ctx, w, s.now()); err != nil {
		return nil, err
	}
	s.wallet.Invalidate(userID)

	log.WithFields(log.Fields{
		"withdrawal_id": w.ID,
		"user_id":       userID,
		"amount":        amount,
		"payout":        payout,
	}).Info("Заявка на вывод создана")
	return w, nil
}

// Approve помечает заявку выполненной (звёзды отправлены вручную).
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	w, err := s.repo.Approve(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"withdrawal_id": w.ID, "user_id": w.UserID}).Info("Вывод выполнен")
	return w, nil
}

// Reject отклоняет заявку и возвращает средства.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	w, err := s.repo.Reject(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(w.UserID)
	log.WithFields(log.Fields{"withdrawal_id": w.ID, "user_id": w.UserID}).Info("Вывод отклонён, средства возвращены")
	return w, nil
}

// Get возвращает заявку по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	return s.repo.Get(ctx, id)
}

// GetPending возвращает активную заявку пользователя или nil.
func (s *Service) GetPending(ctx context.Context, userID int64) (*Withdrawal, error) {
	return s.repo.GetPending(ctx, userID)
}

// Pending возвращает очередь необработанных заявок.
func (s *Service) Pending(ctx context.Context, limit int) ([]*Withdrawal, error) {
	return s.repo.Pending(ctx, limit)
}
