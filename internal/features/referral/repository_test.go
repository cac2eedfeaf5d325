package referral

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/testutil"
)

// createPurchase заводит одобренную покупку напрямую: выплата
// привязывается к записи purchase_history.
func createPurchase(t *testing.T, pool *pgxpool.Pool, userID int64) int {
	t.Helper()
	ctx := context.Background()

	var orderID int
	err := pool.QueryRow(ctx, `
		INSERT INTO orders (user_id, stars, price, recipient, status)
		VALUES ($1, 100, 1000.00, 'user', 'approved')
		RETURNING id
	`, userID).Scan(&orderID)
	if err != nil {
		t.Fatalf("создание заказа: %v", err)
	}

	var purchaseID int
	err = pool.QueryRow(ctx, `
		INSERT INTO purchase_history (user_id, order_id, stars, price)
		VALUES ($1, $2, 100, 1000.00)
		RETURNING id
	`, userID, orderID).Scan(&purchaseID)
	if err != nil {
		t.Fatalf("создание покупки: %v", err)
	}
	return purchaseID
}

// TestPayRewardOnce: за одну покупку вознаграждение выплачивается
// ровно один раз, повторная выплата не двигает баланс
func TestPayRewardOnce(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	referrerID := testutil.NewUserID()
	buyerID := testutil.NewUserID()
	testutil.CreateUser(t, pool, referrerID, 0, 0)
	testutil.CreateUser(t, pool, buyerID, 0, 0)

	purchaseID := createPurchase(t, pool, buyerID)

	reward := &Reward{
		ReferrerID: referrerID,
		ReferredID: buyerID,
		PurchaseID: purchaseID,
		Amount:     50,
		Percent:    5,
	}
	if err := repo.PayReward(ctx, reward, now); err != nil {
		t.Fatalf("выплата вознаграждения: %v", err)
	}
	if !reward.Paid {
		t.Error("вознаграждение не отмечено выплаченным")
	}
	if balance, _ := testutil.Balances(t, pool, referrerID); balance != 50 {
		t.Fatalf("баланс пригласившего = %d, ожидалось 50", balance)
	}

	// Повторная выплата за ту же покупку отклоняется на уровне БД.
	dup := &Reward{
		ReferrerID: referrerID,
		ReferredID: buyerID,
		PurchaseID: purchaseID,
		Amount:     50,
		Percent:    5,
	}
	if err := repo.PayReward(ctx, dup, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("повторная выплата: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
	if balance, _ := testutil.Balances(t, pool, referrerID); balance != 50 {
		t.Fatalf("баланс после повторной выплаты = %d, ожидалось 50", balance)
	}

	if earned, err := repo.TotalEarned(ctx, referrerID); err != nil || earned != 50 {
		t.Fatalf("TotalEarned = %d (%v), ожидалось 50", earned, err)
	}
}
