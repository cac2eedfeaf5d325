// Package admin — repository.go выполняет операции с таблицами
// admin_sessions, admin_login_attempts и admin_logs.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет доступ к данным админ-панели.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий админки.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession открывает сессию (upsert: повторный вход продлевает).
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_sessions (user_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET expires_at = EXCLUDED.expires_at, created_at = NOW()
	`, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

// GetActiveSession возвращает живую сессию или nil.
func (r *Repository) GetActiveSession(ctx context.Context, userID int64, now time.Time) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		SELECT user_id, expires_at, created_at FROM admin_sessions
		WHERE user_id = $1 AND expires_at > $2
	`, userID, now).Scan(&s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return &s, nil
}

// DeleteSession закрывает сессию.
func (r *Repository) DeleteSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка закрытия сессии: %w", err)
	}
	return nil
}

// RecordAttempt фиксирует попытку входа. Успешный вход сбрасывает счётчик.
func (r *Repository) RecordAttempt(ctx context.Context, userID int64, success bool, now time.Time) error {
	if success {
		_, err := r.db.Exec(ctx, `DELETE FROM admin_login_attempts WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("ошибка сброса попыток: %w", err)
		}
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_login_attempts (user_id, attempts, last_attempt)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET attempts = admin_login_attempts.attempts + 1, last_attempt = $2
	`, userID, now)
	if err != nil {
		return fmt.Errorf("ошибка записи попытки: %w", err)
	}
	return nil
}

// RecentAttempts возвращает число неудачных попыток за окно window.
func (r *Repository) RecentAttempts(ctx context.Context, userID int64, window time.Duration, now time.Time) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(attempts, 0) FROM admin_login_attempts
		WHERE user_id = $1 AND last_attempt > $2
	`, userID, now.Add(-window)).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ошибка чтения попыток: %w", err)
	}
	return attempts, nil
}

// Log записывает админ-действие в журнал.
func (r *Repository) Log(ctx context.Context, e *LogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_logs (admin_id, action, details) VALUES ($1, $2, $3)
	`, e.AdminID, e.Action, e.Details)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала админки: %w", err)
	}
	return nil
}

// RecentLogs возвращает последние записи журнала.
func (r *Repository) RecentLogs(ctx context.Context, limit int) ([]*LogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, admin_id, action, COALESCE(details, ''), created_at
		FROM admin_logs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала админки: %w", err)
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		out = append(out, &e)
	}
	return out, nil
}

// Stats собирает сводку по магазину одним запросом на таблицу.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Users)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = 'pending'`).Scan(&st.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'`).Scan(&st.PendingWithdraws)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта выводов: %w", err)
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM exchanges WHERE status = 'pending'`).Scan(&st.PendingExchanges)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта обменов: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(stars), 0), COALESCE(SUM(price), 0)::TEXT
		FROM purchase_history
	`).Scan(&st.StarsSold, &st.Revenue)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта продаж: %w", err)
	}
	return &st, nil
}
