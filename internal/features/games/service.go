// Package games — service.go содержит бизнес-логику мини-игр.
// Выигрышная ячейка «мин» выбирается при создании партии и хранится
// в БД: результат не зависит от состояния процесса и не может быть
// пересчитан повторным колбэком.
package games

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
	"starbazar.ru/stars-bot/internal/features/wallet"
)

// Service управляет мини-играми.
type Service struct {
	repo   *Repository
	wallet *wallet.Service
	cfg    *config.Config
	now    common.Clock
}

// NewService создаёт новый сервис игр.
func NewService(repo *Repository, w *wallet.Service, cfg *config.Config, now common.Clock) *Service {
	return &Service{repo: repo, wallet: w, cfg: cfg, now: now}
}

func (s *Service) checkBet(bet int64) error {
	if bet < s.cfg.GamesMinBet || bet > s.cfg.GamesMaxBet {
		return common.ErrInvalidAmount
	}
	return nil
}

// rollSlot выбирает выигрышную ячейку 1..minesSlots криптостойким
// генератором.
func rollSlot() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(minesSlots))
	if err != nil {
		return 0, fmt.Errorf("ошибка генерации ячейки: %w", err)
	}
	return int(n.Int64()) + 1, nil
}

// StartMines создаёт партию «мин» и фиксирует выигрышную ячейку.
// Ставки нет: исход — фиксированное начисление или штраф, поэтому
// при создании ничего не списывается. Для входа требуется баланс,
// покрывающий возможный штраф.
func (s *Service) StartMines(ctx context.Context, userID int64) (*Game, error) {
	b, err := s.wallet.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b.Virtual < s.cfg.MinesLosePenalty {
		return nil, common.ErrInsufficientFunds
	}

	slot, err := rollSlot()
	if err != nil {
		return nil, err
	}

	g := &Game{
		GameID:      uuid.New(),
		UserID:      userID,
		Type:        GameMines,
		WinningSlot: slot,
	}
	if err := s.repo.Create(ctx, g, s.now()); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id": g.GameID,
		"user_id": userID,
	}).Info("Партия мин начата")
	return g, nil
}

// PickMines рассчитывает партию «мин» по выбранной ячейке.
// Чужую или уже рассчитанную партию рассчитать нельзя.
func (s *Service) PickMines(ctx context.Context, userID int64, gameID uuid.UUID, pick int) (*Game, error) {
	g, err := s.repo.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, common.ErrNoAccess
	}
	if g.Type != GameMines {
		return nil, common.ErrNotFound
	}
	if g.Processed {
		return nil, common.ErrAlreadyProcessed
	}
	if pick < 1 || pick > minesSlots {
		return nil, common.ErrInvalidAmount
	}

	won := MinesOutcome(g.WinningSlot, pick)
	delta := -s.cfg.MinesLosePenalty
	if won {
		delta = s.cfg.MinesWinReward
	}

	settled, err := s.repo.Settle(ctx, gameID, won, delta, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(userID)

	log.WithFields(log.Fields{
		"game_id": gameID,
		"user_id": userID,
		"won":     won,
		"delta":   delta,
	}).Info("Партия мин рассчитана")
	return settled, nil
}

// StartJackpot создаёт партию слот-машины и списывает ставку.
// Результат определяется значением дайса Telegram, который отправляет
// обработчик после создания партии.
func (s *Service) StartJackpot(ctx context.Context, userID, bet int64) (*Game, error) {
	if err := s.checkBet(bet); err != nil {
		return nil, err
	}

	g := &Game{
		GameID: uuid.New(),
		UserID: userID,
		Type:   GameJackpot,
		Bet:    bet,
	}
	if err := s.repo.Create(ctx, g, s.now()); err != nil {
		return nil, err
	}
	s.wallet.Invalidate(userID)

	log.WithFields(log.Fields{
		"game_id": g.GameID,
		"user_id": userID,
		"bet":     bet,
	}).Info("Партия джекпота начата")
	return g, nil
}

// SettleJackpot рассчитывает партию слот-машины по значению дайса.
func (s *Service) SettleJackpot(ctx context.Context, gameID uuid.UUID, diceValue int) (*Game, error) {
	g, err := s.repo.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Type != GameJackpot {
		return nil, common.ErrNotFound
	}
	if g.Processed {
		return nil, common.ErrAlreadyProcessed
	}

	won := JackpotOutcome(diceValue)
	var payout int64
	if won {
		payout = CalcPayout(g.Bet, s.cfg.JackpotMultiplier)
	}

	settled, err := s.repo.Settle(ctx, gameID, won, payout, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(g.UserID)

	log.WithFields(log.Fields{
		"game_id": gameID,
		"user_id": g.UserID,
		"dice":    diceValue,
		"won":     won,
		"payout":  payout,
	}).Info("Партия джекпота рассчитана")
	return settled, nil
}

// RefundJackpot возвращает ставку и закрывает партию без результата.
// Вызывается, когда слот-машину не удалось запустить.
func (s *Service) RefundJackpot(ctx context.Context, gameID uuid.UUID) (*Game, error) {
	g, err := s.repo.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Type != GameJackpot {
		return nil, common.ErrNotFound
	}

	refunded, err := s.repo.Refund(ctx, gameID, s.now())
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(g.UserID)

	log.WithFields(log.Fields{
		"game_id": gameID,
		"user_id": g.UserID,
		"bet":     g.Bet,
	}).Info("Ставка джекпота возвращена")
	return refunded, nil
}

// Get возвращает партию по игровому UUID.
func (s *Service) Get(ctx context.Context, gameID uuid.UUID) (*Game, error) {
	return s.repo.Get(ctx, gameID)
}

// UserStats возвращает сводку партий пользователя.
func (s *Service) UserStats(ctx context.Context, userID int64) (games, wins, totalBet, totalPayout int64, err error) {
	return s.repo.UserStats(ctx, userID)
}
