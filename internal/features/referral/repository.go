// Package referral — repository.go выполняет операции с таблицами
// referral_rewards и referral_logs. Выплата вознаграждения выполняется
// одной транзакцией: запись, начисление и отметка об оплате либо
// происходят вместе, либо не происходят вовсе.
package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с вознаграждениями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий рефералов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// PayReward записывает и выплачивает вознаграждение одной транзакцией:
//  1. вставка вознаграждения (UNIQUE по (referred_id, purchase_id)
//     отсекает повторную выплату за ту же покупку)
//  2. начисление на основной баланс пригласившего
//  3. отметка paid = TRUE
//  4. запись в журнал
//
// Повторный вызов для той же покупки возвращает ErrAlreadyProcessed.
func (r *Repository) PayReward(ctx context.Context, reward *Reward, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO referral_rewards (referrer_id, referred_id, purchase_id, amount, percent)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (referred_id, purchase_id) DO NOTHING
		RETURNING id
	`, reward.ReferrerID, reward.ReferredID, reward.PurchaseID, reward.Amount, reward.Percent).Scan(&reward.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Нет строки = конфликт, вознаграждение уже было записано.
		return common.ErrAlreadyProcessed
	}
	if err != nil {
		return fmt.Errorf("ошибка записи вознаграждения: %w", err)
	}

	if reward.Amount > 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET balance = balance + $2, last_action = $3 WHERE user_id = $1
		`, reward.ReferrerID, reward.Amount, at)
		if err != nil {
			return fmt.Errorf("ошибка начисления вознаграждения: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrUserNotFound
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE referral_rewards SET paid = TRUE WHERE id = $1
	`, reward.ID)
	if err != nil {
		return fmt.Errorf("ошибка отметки выплаты: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO referral_logs (referrer_id, referred_id, event, details)
		VALUES ($1, $2, $3, $4)
	`, reward.ReferrerID, reward.ReferredID, EventRewardPaid,
		fmt.Sprintf("покупка #%d, %d звёзд (%d%%)", reward.PurchaseID, reward.Amount, reward.Percent))
	if err != nil {
		return fmt.Errorf("ошибка записи журнала: %w", err)
	}

	reward.Paid = true
	return tx.Commit(ctx)
}

// TotalEarned возвращает сумму выплаченных вознаграждений пригласившего.
func (r *Repository) TotalEarned(ctx context.Context, referrerID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM referral_rewards
		WHERE referrer_id = $1 AND paid
	`, referrerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заработка: %w", err)
	}
	return total, nil
}

// Log записывает событие реферальной программы вне транзакции выплаты.
func (r *Repository) Log(ctx context.Context, e *LogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO referral_logs (referrer_id, referred_id, event, details)
		VALUES ($1, $2, $3, $4)
	`, e.ReferrerID, e.ReferredID, e.Event, e.Details)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала рефералов: %w", err)
	}
	return nil
}

// RecentLogs возвращает последние события журнала (для админки).
func (r *Repository) RecentLogs(ctx context.Context, limit int) ([]*LogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referred_id, event, COALESCE(details, ''), created_at
		FROM referral_logs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.ReferrerID, &e.ReferredID, &e.Event, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		out = append(out, &e)
	}
	return out, nil
}
