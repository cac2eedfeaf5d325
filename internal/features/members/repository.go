// Package members — repository.go выполняет все операции с таблицами
// users, bans, freezes и warns.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с пользователями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий пользователей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `user_id, username, first_name, balance, virtual_balance,
	total_spent, role, COALESCE(referral_code, ''), referrer_id, created_at, last_action`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.UserID, &u.Username, &u.FirstName, &u.Balance, &u.VirtualBalance,
		&u.TotalSpent, &u.Role, &u.ReferralCode, &u.ReferrerID, &u.CreatedAt, &u.LastAction,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	return &u, nil
}

// CreateUser регистрирует нового пользователя.
// Повторная регистрация безопасна (ON CONFLICT DO NOTHING).
// Возвращает true, если пользователь был создан именно этим вызовом.
func (r *Repository) CreateUser(ctx context.Context, userID int64, username, firstName, referralCode string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, username, first_name, referral_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, username, firstName, referralCode)
	if err != nil {
		return false, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUser возвращает пользователя по ID.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

// GetUserByUsername ищет пользователя по юзернейму (без учёта регистра, без "@").
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return scanUser(row)
}

// GetUserByReferralCode ищет пользователя по его реферальному коду.
func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

// UpdateProfile обновляет юзернейм и имя (они меняются в Telegram).
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, username, firstName string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET username = $2, first_name = $3 WHERE user_id = $1
	`, userID, username, firstName)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля: %w", err)
	}
	return nil
}

// TouchLastAction фиксирует время последней активности.
func (r *Repository) TouchLastAction(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_action = $2 WHERE user_id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_action: %w", err)
	}
	return nil
}

// SetRole назначает роль пользователю.
func (r *Repository) SetRole(ctx context.Context, userID int64, role Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2 WHERE user_id = $1`, userID, role)
	if err != nil {
		return fmt.Errorf("ошибка назначения роли: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// AttachReferrer привязывает пригласившего. Условие referrer_id IS NULL
// гарантирует, что привязка происходит ровно один раз, даже при гонке.
func (r *Repository) AttachReferrer(ctx context.Context, userID, referrerID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET referrer_id = $2
		WHERE user_id = $1 AND referrer_id IS NULL
	`, userID, referrerID)
	if err != nil {
		return fmt.Errorf("ошибка привязки реферера: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyReferred
	}
	return nil
}

// CountUsers возвращает общее число пользователей.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}

// CountReferrals возвращает число приглашённых пользователем.
func (r *Repository) CountReferrals(ctx context.Context, referrerID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE referrer_id = $1`, referrerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта рефералов: %w", err)
	}
	return n, nil
}

// --- Модерация ---

// BanUser записывает бан. Повторный бан обновляет причину и срок.
func (r *Repository) BanUser(ctx context.Context, b *Ban) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bans (user_id, reason, banned_by, until)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET reason = EXCLUDED.reason, banned_by = EXCLUDED.banned_by,
		    until = EXCLUDED.until, created_at = NOW()
	`, b.UserID, b.Reason, b.BannedBy, b.Until)
	if err != nil {
		return fmt.Errorf("ошибка бана: %w", err)
	}
	return nil
}

// UnbanUser снимает бан. Отсутствующий бан не является ошибкой.
func (r *Repository) UnbanUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bans WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка разбана: %w", err)
	}
	return nil
}

// GetBan возвращает активный бан или nil.
func (r *Repository) GetBan(ctx context.Context, userID int64) (*Ban, error) {
	var b Ban
	err := r.db.QueryRow(ctx, `
		SELECT user_id, COALESCE(reason, ''), banned_by, until, created_at
		FROM bans WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.Reason, &b.BannedBy, &b.Until, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения бана: %w", err)
	}
	return &b, nil
}

// DeleteExpiredBans удаляет истёкшие временные баны. Вызывается планировщиком.
func (r *Repository) DeleteExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM bans WHERE until IS NOT NULL AND until <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки банов: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FreezeUser замораживает аккаунт.
func (r *Repository) FreezeUser(ctx context.Context, f *Freeze) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO freezes (user_id, reason, frozen_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET reason = EXCLUDED.reason, frozen_by = EXCLUDED.frozen_by, created_at = NOW()
	`, f.UserID, f.Reason, f.FrozenBy)
	if err != nil {
		return fmt.Errorf("ошибка заморозки: %w", err)
	}
	return nil
}

// UnfreezeUser снимает заморозку.
func (r *Repository) UnfreezeUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM freezes WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка разморозки: %w", err)
	}
	return nil
}

// IsFrozen сообщает, заморожен ли аккаунт.
func (r *Repository) IsFrozen(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM freezes WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки заморозки: %w", err)
	}
	return exists, nil
}

// AddWarn записывает предупреждение и возвращает их общее число.
func (r *Repository) AddWarn(ctx context.Context, w *Warn) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO warns (user_id, reason, warned_by) VALUES ($1, $2, $3)
	`, w.UserID, w.Reason, w.WarnedBy)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи предупреждения: %w", err)
	}

	var total int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM warns WHERE user_id = $1`, w.UserID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта предупреждений: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

// ClearWarns снимает все предупреждения пользователя.
func (r *Repository) ClearWarns(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM warns WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка снятия предупреждений: %w", err)
	}
	return nil
}
