// Package games — repository.go выполняет операции с таблицей games.
// Создание партии списывает ставку (если она есть), расчёт выполняется
// условным UPDATE с проверкой NOT processed: одна партия рассчитывается
// ровно один раз, независимо от числа повторных колбэков.
package games

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с партиями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий игр.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const gameColumns = `id, game_id, user_id, game_type, bet, COALESCE(winning_slot, 0),
	won, payout, processed, created_at, settled_at`

func scanGame(row pgx.Row) (*Game, error) {
	var g Game
	err := row.Scan(
		&g.ID, &g.GameID, &g.UserID, &g.Type, &g.Bet, &g.WinningSlot,
		&g.Won, &g.Payout, &g.Processed, &g.CreatedAt, &g.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования партии: %w", err)
	}
	return &g, nil
}

// Create создаёт партию и, если есть ставка, списывает её
// с виртуального баланса одной транзакцией.
func (r *Repository) Create(ctx context.Context, g *Game, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if g.Bet > 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET virtual_balance = virtual_balance - $2, last_action = $3
			WHERE user_id = $1 AND virtual_balance >= $2
		`, g.UserID, g.Bet, at)
		if err != nil {
			return fmt.Errorf("ошибка списания ставки: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrInsufficientFunds
		}
	}

	var winningSlot *int
	if g.WinningSlot > 0 {
		winningSlot = &g.WinningSlot
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO games (game_id, user_id, game_type, bet, winning_slot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, g.GameID, g.UserID, g.Type, g.Bet, winningSlot).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания партии: %w", err)
	}

	return tx.Commit(ctx)
}

// Get возвращает партию по игровому UUID.
func (r *Repository) Get(ctx context.Context, gameID uuid.UUID) (*Game, error) {
	row := r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE game_id = $1`, gameID)
	return scanGame(row)
}

// Settle фиксирует результат партии и применяет знаковое движение
// средств delta к виртуальному балансу: выигрыш начисляется, штраф
// списывается, баланс при штрафе не уходит ниже нуля. Одна транзакция,
// условие NOT processed гарантирует однократный расчёт.
func (r *Repository) Settle(ctx context.Context, gameID uuid.UUID, won bool, delta int64, at time.Time) (*Game, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE games SET won = $2, payout = $3, processed = TRUE, settled_at = $4
		WHERE game_id = $1 AND NOT processed
		RETURNING `+gameColumns+`
	`, gameID, won, delta, at)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, gameID); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	switch {
	case delta > 0:
		tag, err := tx.Exec(ctx, `
			UPDATE users SET virtual_balance = virtual_balance + $2, last_action = $3
			WHERE user_id = $1
		`, g.UserID, delta, at)
		if err != nil {
			return nil, fmt.Errorf("ошибка начисления выигрыша: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, common.ErrUserNotFound
		}
	case delta < 0:
		tag, err := tx.Exec(ctx, `
			UPDATE users SET virtual_balance = GREATEST(virtual_balance - $2, 0), last_action = $3
			WHERE user_id = $1
		`, g.UserID, -delta, at)
		if err != nil {
			return nil, fmt.Errorf("ошибка списания штрафа: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, common.ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Refund закрывает партию без результата и возвращает ставку на
// виртуальный баланс. Используется, когда партию не удалось разыграть.
// Условие NOT processed гарантирует однократный возврат.
func (r *Repository) Refund(ctx context.Context, gameID uuid.UUID, at time.Time) (*Game, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE games SET payout = bet, processed = TRUE, settled_at = $2
		WHERE game_id = $1 AND NOT processed
		RETURNING `+gameColumns+`
	`, gameID, at)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, gameID); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	if g.Bet > 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET virtual_balance = virtual_balance + $2, last_action = $3
			WHERE user_id = $1
		`, g.UserID, g.Bet, at)
		if err != nil {
			return nil, fmt.Errorf("ошибка возврата ставки: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, common.ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// UserStats возвращает сводку партий пользователя: всего сыграно,
// выиграно, суммарные ставки и выплаты.
func (r *Repository) UserStats(ctx context.Context, userID int64) (games, wins, totalBet, totalPayout int64, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE won),
		       COALESCE(SUM(bet), 0),
		       COALESCE(SUM(payout), 0)
		FROM games WHERE user_id = $1 AND processed
	`, userID).Scan(&games, &wins, &totalBet, &totalPayout)
	if err != nil {
		err = fmt.Errorf("ошибка чтения статистики игр: %w", err)
	}
	return
}
