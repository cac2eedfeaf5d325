// Package actions — repository.go хранит обработанные действия
// в таблице processed_actions. Таблица страхует кэш дедупликации
// от перезапуска процесса.
package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет доступ к журналу обработанных действий.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий действий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// MarkProcessed отмечает действие обработанным. Возвращает true,
// если отметка поставлена именно этим вызовом (первым).
func (r *Repository) MarkProcessed(ctx context.Context, actionKey string, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO processed_actions (action_key, user_id)
		VALUES ($1, $2)
		ON CONFLICT (action_key) DO NOTHING
	`, actionKey, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка записи действия: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOlderThan удаляет записи старше cutoff. Вызывается планировщиком.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM processed_actions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки действий: %w", err)
	}
	return tag.RowsAffected(), nil
}
