// Package testutil — вспомогательные функции для тестов с реальной БД.
// Тесты подключаются к базе из TEST_DATABASE_URL; без переменной они
// пропускаются, поэтому обычный прогон юнит-тестов базы не требует.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/db/postgres"
)

// Pool подключается к тестовой базе и прогоняет миграции.
// Пропускает тест, если TEST_DATABASE_URL не задан.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан, тест с БД пропущен")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("подключение к тестовой БД: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("миграции тестовой БД: %v", err)
	}
	return pool
}

var (
	idBase = time.Now().UnixNano() % 1_000_000_000_000
	idSeq  atomic.Int64
)

// NewUserID возвращает user_id, уникальный в пределах прогона тестов:
// тесты не чистят базу и не должны пересекаться по пользователям.
func NewUserID() int64 {
	return idBase + idSeq.Add(1)
}

// CodeSuffix возвращает уникальный суффикс для кодов, которые в схеме
// объявлены UNIQUE.
func CodeSuffix() string {
	return strconv.FormatInt(NewUserID(), 36)
}

// CreateUser регистрирует тестового пользователя с заданными балансами.
func CreateUser(t *testing.T, pool *pgxpool.Pool, userID, balance, virtual int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (user_id, username, first_name, referral_code, balance, virtual_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, fmt.Sprintf("user%d", userID), "Тест", fmt.Sprintf("ref%d", userID), balance, virtual)
	if err != nil {
		t.Fatalf("создание тестового пользователя %d: %v", userID, err)
	}
}

// Balances читает балансы пользователя напрямую из таблицы users.
func Balances(t *testing.T, pool *pgxpool.Pool, userID int64) (balance, virtual int64) {
	t.Helper()
	err := pool.QueryRow(context.Background(), `
		SELECT balance, virtual_balance FROM users WHERE user_id = $1
	`, userID).Scan(&balance, &virtual)
	if err != nil {
		t.Fatalf("чтение балансов пользователя %d: %v", userID, err)
	}
	return balance, virtual
}
