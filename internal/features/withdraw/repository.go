// Package withdraw — repository.go выполняет операции с таблицей withdrawals.
// Правило «одна активная заявка на пользователя» обеспечивается
// частичным уникальным индексом по user_id для status = 'pending'.
package withdraw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с заявками на вывод.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий выводов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const withdrawalColumns = `id, user_id, amount, payout, recipient, status, created_at, processed_at`

func scanWithdrawal(row pgx.Row) (*Withdrawal, error) {
	var w Withdrawal
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Payout, &w.Recipient, &w.Status, &w.CreatedAt, &w.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования вывода: %w", err)
	}
	return &w, nil
}

// Create создаёт заявку и списывает amount с основного баланса
// одной транзакцией. Вторая активная заявка упрётся в уникальный
// индекс и откатит списание.
func (r *Repository) Create(ctx context.Context, w *Withdrawal, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users SET balance = balance - $2, last_action = $3
		WHERE user_id = $1 AND balance >= $2
	`, w.UserID, w.Amount, at)
	if err != nil {
		return fmt.Errorf("ошибка списания баланса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInsufficientFunds
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, payout, recipient, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, w.ID, w.UserID, w.Amount, w.Payout, w.Recipient, StatusPending).Scan(&w.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation, сработал индекс одной активной заявки.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrPendingWithdrawalExists
		}
		return fmt.Errorf("ошибка создания заявки на вывод: %w", err)
	}
	w.Status = StatusPending

	return tx.Commit(ctx)
}

// Get возвращает заявку по ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	return scanWithdrawal(row)
}

// GetPending возвращает активную заявку пользователя или nil.
func (r *Repository) GetPending(ctx context.Context, userID int64) (*Withdrawal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE user_id = $1 AND status = $2
	`, userID, StatusPending)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// Approve помечает заявку выполненной. Деньги уже списаны при создании,
// движения средств нет.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, at time.Time) (*Withdrawal, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+withdrawalColumns+`
	`, id, StatusApproved, at, StatusPending)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, id); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// Reject отклоняет заявку и возвращает списанную сумму одной транзакцией.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, at time.Time) (*Withdrawal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+withdrawalColumns+`
	`, id, StatusRejected, at, StatusPending)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, id); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users SET balance = balance + $2, last_action = $3 WHERE user_id = $1
	`, w.UserID, w.Amount, at)
	if err != nil {
		return nil, fmt.Errorf("ошибка возврата баланса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Pending возвращает очередь необработанных заявок.
func (r *Repository) Pending(ctx context.Context, limit int) ([]*Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заявок на вывод: %w", err)
	}
	defer rows.Close()

	var out []*Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
