package promo

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/testutil"
)

// createPendingOrder заводит необработанный заказ напрямую: промокод
// применяется к заказу, созданному магазином.
func createPendingOrder(t *testing.T, pool *pgxpool.Pool, userID int64, price string) int {
	t.Helper()
	var orderID int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO orders (user_id, stars, price, recipient)
		VALUES ($1, 100, $2, 'user')
		RETURNING id
	`, userID, price).Scan(&orderID)
	if err != nil {
		t.Fatalf("создание заказа: %v", err)
	}
	return orderID
}

// TestApplyToOrder: скидка считается от цены заказа, лимит активаций
// и однократность на пользователя соблюдаются на уровне БД
func TestApplyToOrder(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	firstID := testutil.NewUserID()
	secondID := testutil.NewUserID()
	testutil.CreateUser(t, pool, firstID, 0, 0)
	testutil.CreateUser(t, pool, secondID, 0, 0)

	code := NormalizeCode("лето" + testutil.CodeSuffix())
	p := &Promocode{Code: code, Percent: 10, MaxUses: 1}
	if err := repo.CreatePromocode(ctx, p); err != nil {
		t.Fatalf("создание промокода: %v", err)
	}

	orderID := createPendingOrder(t, pool, firstID, "1000.00")
	gotOrderID, discount, err := repo.ApplyToOrder(ctx, firstID, p.ID, p.Percent)
	if err != nil {
		t.Fatalf("применение промокода: %v", err)
	}
	if gotOrderID != orderID {
		t.Errorf("промокод применён к заказу %d, ожидался %d", gotOrderID, orderID)
	}
	if discount.StringFixed(2) != "100.00" {
		t.Errorf("скидка = %s, ожидалось 100.00 (10%% от 1000)", discount.StringFixed(2))
	}

	// Лимит активаций исчерпан: второй пользователь получает отказ.
	createPendingOrder(t, pool, secondID, "500.00")
	if _, _, err := repo.ApplyToOrder(ctx, secondID, p.ID, p.Percent); !errors.Is(err, common.ErrPromoExhausted) {
		t.Fatalf("применение после лимита: err = %v, ожидалось ErrPromoExhausted", err)
	}

	// Повторное применение тем же пользователем к новому заказу
	// отсекается записью активации, а не лимитом.
	createPendingOrder(t, pool, firstID, "300.00")
	if _, _, err := repo.ApplyToOrder(ctx, firstID, p.ID, p.Percent); !errors.Is(err, common.ErrPromoAlreadyUsed) {
		t.Fatalf("повторное применение: err = %v, ожидалось ErrPromoAlreadyUsed", err)
	}
}

// TestApplyToOrderNoOrder: без необработанного заказа применять нечего
func TestApplyToOrderNoOrder(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 0)

	p := &Promocode{Code: NormalizeCode("пусто" + testutil.CodeSuffix()), Percent: 15}
	if err := repo.CreatePromocode(ctx, p); err != nil {
		t.Fatalf("создание промокода: %v", err)
	}

	if _, _, err := repo.ApplyToOrder(ctx, userID, p.ID, p.Percent); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("применение без заказа: err = %v, ожидалось ErrNotFound", err)
	}
}
