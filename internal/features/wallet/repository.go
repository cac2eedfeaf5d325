// Package wallet — repository.go выполняет все денежные операции
// над таблицей users. Списание делается одним условным UPDATE:
// строка не обновится, если средств не хватает, и это видно
// по RowsAffected без отдельного SELECT.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// dbtx покрывает и пул, и открытую транзакцию. Денежные методы
// работают через него, чтобы составные операции (выплата реферала,
// возврат при отклонении заявки) могли выполняться в одной транзакции.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository предоставляет методы для работы с балансами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий кошелька.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool возвращает пул для операций, которым нужна своя транзакция.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// GetBalances возвращает оба счёта пользователя.
func (r *Repository) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	var b Balances
	b.UserID = userID
	err := r.db.QueryRow(ctx,
		`SELECT balance, virtual_balance FROM users WHERE user_id = $1`, userID,
	).Scan(&b.Main, &b.Virtual)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return &b, nil
}

// Credit начисляет amount на выбранный счёт.
func (r *Repository) Credit(ctx context.Context, userID, amount int64, kind BalanceKind, at time.Time) error {
	return credit(ctx, r.db, userID, amount, kind, at)
}

// CreditTx — начисление внутри уже открытой транзакции.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, userID, amount int64, kind BalanceKind, at time.Time) error {
	return credit(ctx, tx, userID, amount, kind, at)
}

// Debit списывает amount с выбранного счёта.
// Возвращает ErrInsufficientFunds, если средств не хватает.
func (r *Repository) Debit(ctx context.Context, userID, amount int64, kind BalanceKind, at time.Time) error {
	return debit(ctx, r.db, userID, amount, kind, at)
}

// DebitTx — списание внутри уже открытой транзакции.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, userID, amount int64, kind BalanceKind, at time.Time) error {
	return debit(ctx, tx, userID, amount, kind, at)
}

// AddTotalSpentTx увеличивает накопленную сумму покупок (в рублях).
// Вызывается при одобрении заказа, в его транзакции.
func (r *Repository) AddTotalSpentTx(ctx context.Context, tx pgx.Tx, userID int64, amount string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE users SET total_spent = total_spent + $2::NUMERIC WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка обновления total_spent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

func credit(ctx context.Context, db dbtx, userID, amount int64, kind BalanceKind, at time.Time) error {
	// kind подставляется в текст запроса, поэтому тип проверяется заранее.
	if !kind.Valid() {
		return fmt.Errorf("неизвестный тип баланса %q", kind)
	}
	query := fmt.Sprintf(
		`UPDATE users SET %s = %s + $2, last_action = $3 WHERE user_id = $1`,
		kind, kind,
	)
	tag, err := db.Exec(ctx, query, userID, amount, at)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

func debit(ctx context.Context, db dbtx, userID, amount int64, kind BalanceKind, at time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("неизвестный тип баланса %q", kind)
	}
	query := fmt.Sprintf(
		`UPDATE users SET %s = %s - $2, last_action = $3 WHERE user_id = $1 AND %s >= $2`,
		kind, kind, kind,
	)
	tag, err := db.Exec(ctx, query, userID, amount, at)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Либо пользователя нет, либо не хватает средств. Уточняем.
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки пользователя: %w", err)
		}
		if !exists {
			return common.ErrUserNotFound
		}
		return common.ErrInsufficientFunds
	}
	return nil
}
