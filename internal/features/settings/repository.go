// Package settings — repository.go читает и пишет таблицу settings.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет доступ к таблице настроек.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий настроек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get возвращает значение настройки по ключу.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("ошибка чтения настройки %q: %w", key, err)
	}
	return value, nil
}

// Set записывает значение настройки (upsert).
func (r *Repository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка записи настройки %q: %w", key, err)
	}
	return nil
}

// SetIfAbsent записывает значение, только если ключа ещё нет.
// Используется для дефолтов при первом запуске.
func (r *Repository) SetIfAbsent(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка записи настройки %q: %w", key, err)
	}
	return nil
}

// All возвращает все настройки.
func (r *Repository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения настроек: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("ошибка сканирования настройки: %w", err)
		}
		out[k] = v
	}
	return out, nil
}
