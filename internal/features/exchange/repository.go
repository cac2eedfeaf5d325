// Package exchange — repository.go выполняет операции с таблицей exchanges.
// Создание заявки и списание исходного баланса — одна транзакция,
// как и одобрение/отклонение с соответствующим движением средств.
package exchange

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

// Repository предоставляет методы для работы с заявками на обмен.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий обменов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const exchangeColumns = `id, user_id, direction, amount, received, status, created_at, processed_at`

func scanExchange(row pgx.Row) (*Exchange, error) {
	var e Exchange
	err := row.Scan(&e.ID, &e.UserID, &e.Direction, &e.Amount, &e.Received, &e.Status, &e.CreatedAt, &e.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования обмена: %w", err)
	}
	return &e, nil
}

// balanceColumns возвращает колонки users для исходного и целевого
// балансов направления. Имена подставляются в SQL только отсюда.
func balanceColumns(d Direction) (source, target string) {
	if d == DirRealToVirtual {
		return "balance", "virtual_balance"
	}
	return "virtual_balance", "balance"
}

// Create создаёт заявку и списывает amount с исходного баланса
// одной транзакцией. Нехватка средств откатывает заявку.
func (r *Repository) Create(ctx context.Context, e *Exchange, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	source, _ := balanceColumns(e.Direction)
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE users SET %s = %s - $2, last_action = $3
		WHERE user_id = $1 AND %s >= $2
	`, source, source, source), e.UserID, e.Amount, at)
	if err != nil {
		return fmt.Errorf("ошибка списания исходного баланса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInsufficientFunds
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO exchanges (id, user_id, direction, amount, received, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.UserID, e.Direction, e.Amount, e.Received, StatusPending).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания заявки на обмен: %w", err)
	}
	e.Status = StatusPending

	return tx.Commit(ctx)
}

// Get возвращает заявку по ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Exchange, error) {
	row := r.db.QueryRow(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id)
	return scanExchange(row)
}

// Approve одобряет заявку и начисляет Received на целевой баланс
// одной транзакцией. Условный UPDATE по статусу отсекает повтор.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, at time.Time) (*Exchange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE exchanges SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+exchangeColumns+`
	`, id, StatusApproved, at, StatusPending)
	e, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, id); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	_, target := balanceColumns(e.Direction)
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE users SET %s = %s + $2, last_action = $3 WHERE user_id = $1
	`, target, target), e.UserID, e.Received, at)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления на целевой баланс: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Reject отклоняет заявку и возвращает списанное на исходный баланс
// одной транзакцией.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, at time.Time) (*Exchange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE exchanges SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+exchangeColumns+`
	`, id, StatusRejected, at, StatusPending)
	e, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if _, gerr := r.Get(ctx, id); gerr == nil {
				return nil, common.ErrAlreadyProcessed
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	source, _ := balanceColumns(e.Direction)
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE users SET %s = %s + $2, last_action = $3 WHERE user_id = $1
	`, source, source), e.UserID, e.Amount, at)
	if err != nil {
		return nil, fmt.Errorf("ошибка возврата исходного баланса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Pending возвращает очередь необработанных заявок.
func (r *Repository) Pending(ctx context.Context, limit int) ([]*Exchange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+exchangeColumns+` FROM exchanges
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заявок на обмен: %w", err)
	}
	defer rows.Close()

	var out []*Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
