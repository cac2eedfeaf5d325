// Package shop — repository.go выполняет операции с таблицами orders
// и purchase_history. Смена статуса заказа делается условным UPDATE
// по текущему статусу: два оператора не смогут обработать один заказ.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с заказами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий магазина.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, user_id, stars, price, discount_pct, promocode_id, discount, recipient, status, cancel_reason, created_at, processed_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Stars, &o.Price, &o.DiscountPct, &o.PromocodeID, &o.Discount,
		&o.Recipient, &o.Status, &o.CancelReason, &o.CreatedAt, &o.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
	}
	return &o, nil
}

// CreateOrder создаёт заказ. Если указана скидка из user_discounts,
// она помечается использованной в той же транзакции.
func (r *Repository) CreateOrder(ctx context.Context, o *Order, discountSource string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, stars, price, discount_pct, recipient, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, o.UserID, o.Stars, o.Price, o.DiscountPct, o.Recipient, StatusPending).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}
	o.Status = StatusPending

	if discountSource != "" {
		tag, err := tx.Exec(ctx, `
			UPDATE user_discounts SET used = TRUE
			WHERE user_id = $1 AND source_link = $2 AND NOT used
		`, o.UserID, discountSource)
		if err != nil {
			return fmt.Errorf("ошибка списания скидки: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrAlreadyProcessed
		}
	}

	return tx.Commit(ctx)
}

// GetOrder возвращает заказ по ID.
func (r *Repository) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

// Approve одобряет заказ одной транзакцией:
//  1. переводит pending → approved (условный UPDATE отсекает повтор)
//  2. начисляет звёзды на основной баланс
//  3. увеличивает total_spent на итоговую цену (с учётом скидки)
//  4. пишет запись в историю покупок
//
// Возвращает ID записи истории для реферального хука.
func (r *Repository) Approve(ctx context.Context, orderID int, at time.Time) (*Order, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE orders SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+orderColumns+`
	`, orderID, StatusApproved, at, StatusPending)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Заказа нет либо он уже обработан. Уточняем.
			if _, gerr := r.GetOrder(ctx, orderID); gerr == nil {
				return nil, 0, common.ErrAlreadyProcessed
			}
			return nil, 0, common.ErrNotFound
		}
		return nil, 0, err
	}

	finalPrice := o.FinalPrice()
	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET balance = balance + $2, total_spent = total_spent + $3, last_action = $4
		WHERE user_id = $1
	`, o.UserID, o.Stars, finalPrice, at)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка начисления звёзд: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, 0, common.ErrUserNotFound
	}

	var purchaseID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_history (user_id, order_id, stars, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, o.UserID, o.ID, o.Stars, finalPrice).Scan(&purchaseID)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка записи истории покупок: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return o, purchaseID, nil
}

// SetStatus переводит заказ из pending в terminal-статус (reject/cancel).
// Возвращает заказ после обновления.
func (r *Repository) SetStatus(ctx context.Context, orderID int, to OrderStatus, at time.Time) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+orderColumns+`
	`, orderID, to, at, StatusPending)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.GetOrder(ctx, orderID); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// Cancel переводит заказ из pending в cancelled с сохранением причины.
func (r *Repository) Cancel(ctx context.Context, orderID int, reason string, at time.Time) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, cancel_reason = $3, processed_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+orderColumns+`
	`, orderID, StatusCancelled, reason, at, StatusPending)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.GetOrder(ctx, orderID); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// PendingOrders возвращает необработанные заказы (для админки).
func (r *Repository) PendingOrders(ctx context.Context, limit int) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заказов: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// UserPurchases возвращает последние покупки пользователя.
func (r *Repository) UserPurchases(ctx context.Context, userID int64, limit int) ([]*Purchase, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, COALESCE(order_id, 0), stars, price, created_at
		FROM purchase_history
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории покупок: %w", err)
	}
	defer rows.Close()

	var out []*Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.OrderID, &p.Stars, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования покупки: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}
