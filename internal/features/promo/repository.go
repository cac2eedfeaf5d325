// Package promo — repository.go выполняет операции с таблицами
// promocodes, used_promocodes, discount_links и user_discounts.
// Применение промокода к заказу выполняется в одной транзакции:
// повторная активация и перерасход лимита отсекаются на уровне БД.
package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с промокодами и скидками.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий промокодов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePromocode создаёт промокод. Код должен быть уже нормализован.
func (r *Repository) CreatePromocode(ctx context.Context, p *Promocode) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO promocodes (code, discount_percent, max_uses, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.Code, p.Percent, p.MaxUses, p.ExpiresAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания промокода: %w", err)
	}
	return nil
}

// GetPromocode возвращает промокод по коду.
func (r *Repository) GetPromocode(ctx context.Context, code string) (*Promocode, error) {
	var p Promocode
	err := r.db.QueryRow(ctx, `
		SELECT id, code, discount_percent, max_uses, used_count, expires_at, created_at
		FROM promocodes WHERE code = $1
	`, code).Scan(&p.ID, &p.Code, &p.Percent, &p.MaxUses, &p.UsedCount, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPromoNotFound
		}
		return nil, fmt.Errorf("ошибка чтения промокода: %w", err)
	}
	return &p, nil
}

// HasUsed сообщает, активировал ли пользователь этот промокод.
func (r *Repository) HasUsed(ctx context.Context, userID int64, promocodeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM used_promocodes WHERE user_id = $1 AND promocode_id = $2)
	`, userID, promocodeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки активации: %w", err)
	}
	return exists, nil
}

// ApplyToOrder применяет промокод к последнему необработанному заказу
// пользователя одной транзакцией:
//  1. блокирует заказ без промокода (FOR UPDATE)
//  2. отмечает активацию (UNIQUE отсекает повтор)
//  3. увеличивает used_count с проверкой лимита
//  4. записывает в заказ промокод и сумму скидки от цены заказа
//
// Возвращает номер заказа и сумму скидки. Если подходящего заказа
// нет, возвращает ErrNotFound.
func (r *Repository) ApplyToOrder(ctx context.Context, userID int64, promocodeID, percent int) (int, decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	err = tx.QueryRow(ctx, `
		SELECT id FROM orders
		WHERE user_id = $1 AND status = 'pending' AND promocode_id IS NULL
		ORDER BY id DESC LIMIT 1
		FOR UPDATE
	`, userID).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, decimal.Zero, common.ErrNotFound
	}
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO used_promocodes (user_id, promocode_id, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, promocode_id) DO NOTHING
	`, userID, promocodeID, orderID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("ошибка записи активации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, decimal.Zero, common.ErrPromoAlreadyUsed
	}

	tag, err = tx.Exec(ctx, `
		UPDATE promocodes SET used_count = used_count + 1
		WHERE id = $1 AND (max_uses = 0 OR used_count < max_uses)
	`, promocodeID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("ошибка обновления счётчика: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, decimal.Zero, common.ErrPromoExhausted
	}

	var discount decimal.Decimal
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET promocode_id = $2, discount = ROUND(price * $3 / 100.0, 2)
		WHERE id = $1
		RETURNING discount
	`, orderID, promocodeID, percent).Scan(&discount)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("ошибка записи скидки в заказ: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, decimal.Zero, err
	}
	return orderID, discount, nil
}

// DeletePromocode удаляет промокод.
func (r *Repository) DeletePromocode(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM promocodes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("ошибка удаления промокода: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPromoNotFound
	}
	return nil
}

// ListPromocodes возвращает все промокоды (для админки).
func (r *Repository) ListPromocodes(ctx context.Context) ([]*Promocode, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, discount_percent, max_uses, used_count, expires_at, created_at
		FROM promocodes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения промокодов: %w", err)
	}
	defer rows.Close()

	var out []*Promocode
	for rows.Next() {
		var p Promocode
		if err := rows.Scan(&p.ID, &p.Code, &p.Percent, &p.MaxUses, &p.UsedCount, &p.ExpiresAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования промокода: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}

// --- Ссылки-скидки ---

// CreateDiscountLink создаёт ссылку-скидку.
func (r *Repository) CreateDiscountLink(ctx context.Context, d *DiscountLink) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO discount_links (link_code, percent, max_uses)
		VALUES ($1, $2, $3)
		RETURNING id
	`, d.LinkCode, d.Percent, d.MaxUses).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания ссылки-скидки: %w", err)
	}
	return nil
}

// GetDiscountLink возвращает ссылку-скидку по коду.
func (r *Repository) GetDiscountLink(ctx context.Context, linkCode string) (*DiscountLink, error) {
	var d DiscountLink
	err := r.db.QueryRow(ctx, `
		SELECT id, link_code, percent, max_uses, used_count, created_at
		FROM discount_links WHERE link_code = $1
	`, linkCode).Scan(&d.ID, &d.LinkCode, &d.Percent, &d.MaxUses, &d.UsedCount, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("ошибка чтения ссылки-скидки: %w", err)
	}
	return &d, nil
}

// ActivateDiscount выдаёт пользователю персональную скидку по ссылке.
// Одна транзакция: лимит активаций и повторная выдача отсекаются на БД.
func (r *Repository) ActivateDiscount(ctx context.Context, userID int64, linkCode string, percent int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO user_discounts (user_id, source_link, percent)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, source_link) DO NOTHING
	`, userID, linkCode, percent)
	if err != nil {
		return fmt.Errorf("ошибка выдачи скидки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Скидка по этой ссылке уже была выдана, лимит не трогаем.
		return nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE discount_links SET used_count = used_count + 1
		WHERE link_code = $1 AND (max_uses = 0 OR used_count < max_uses)
	`, linkCode)
	if err != nil {
		return fmt.Errorf("ошибка обновления счётчика ссылки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrDiscountExhausted
	}

	return tx.Commit(ctx)
}

// BestDiscount возвращает лучшую неиспользованную скидку пользователя или nil.
func (r *Repository) BestDiscount(ctx context.Context, userID int64) (*UserDiscount, error) {
	var d UserDiscount
	err := r.db.QueryRow(ctx, `
		SELECT user_id, source_link, percent, used, granted_at
		FROM user_discounts
		WHERE user_id = $1 AND NOT used
		ORDER BY percent DESC
		LIMIT 1
	`, userID).Scan(&d.UserID, &d.SourceLink, &d.Percent, &d.Used, &d.GrantedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения скидки: %w", err)
	}
	return &d, nil
}

// ConsumeDiscountTx помечает скидку использованной внутри транзакции заказа.
// Условие NOT used гарантирует однократное применение.
func (r *Repository) ConsumeDiscountTx(ctx context.Context, tx pgx.Tx, userID int64, sourceLink string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE user_discounts SET used = TRUE
		WHERE user_id = $1 AND source_link = $2 AND NOT used
	`, userID, sourceLink)
	if err != nil {
		return fmt.Errorf("ошибка списания скидки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyProcessed
	}
	return nil
}
